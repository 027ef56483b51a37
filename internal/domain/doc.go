// Package domain contains the core entities of the transcription study:
// the alphabet registry, challenges, the transcription error classifier and
// submissions. It is independent of any transport or storage mechanism.
package domain
