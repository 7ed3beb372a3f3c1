/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
)

var sizeSuffixes = []string{"kB", "MB", "GB", "TB", "PB", "EB"}

func humanReadableSize(bytes int64) string {
	const unit = 1000

	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	size := float64(bytes) / unit
	i := 0
	for size >= unit && i < len(sizeSuffixes)-1 {
		size /= unit
		i++
	}

	return fmt.Sprintf("%.1f %s", size, sizeSuffixes[i])
}
