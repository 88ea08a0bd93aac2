package embed

// Chunk splits text into consecutive pieces of at most maxChars runes.
func Chunk(text string, maxChars int) []string {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		return []string{text}
	}

	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+maxChars-1)/maxChars)
	for i := 0; i < len(runes); i += maxChars {
		end := min(i+maxChars, len(runes))
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
