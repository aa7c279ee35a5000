// Dialoguecore resolves world-state-aware NPC dialogue deterministically.
// Usage: dialoguecore run [--plain] [--script <file>] [--trace] <dialogue_directory>
package main

func main() {
	Execute()
}
