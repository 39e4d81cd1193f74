package checksum

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const width = 16

// Row returns the xxhash of a raw row as a fixed width hex string. Trailing line
// terminators are ignored so LF and CRLF files agree.
func Row(line string) string {
	sum := strconv.FormatUint(xxhash.Sum64String(strings.TrimRight(line, "\r\n")), 16)
	if len(sum) < width {
		sum = strings.Repeat("0", width-len(sum)) + sum
	}
	return sum
}
