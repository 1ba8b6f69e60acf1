package derive_test

import "fmt"

func formatDuration(h, m int, s float64) string {
	return fmt.Sprintf("%02d:%02d:%09.6f", h, m, s)
}
