// Package textchunk splits long text into bounded chunks for sequential
// external processing.
//
// SplitSentences packs whole sentences greedily for speech synthesis.
// SplitParagraphs packs blank-line separated paragraphs for translation,
// falling back to sentence packing for a paragraph that alone exceeds the
// budget. Tail extracts the trailing context passed between translation
// requests. Lengths are counted in runes throughout.
package textchunk
