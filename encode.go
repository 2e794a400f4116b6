package zplgraphic

import (
	"bytes"
	"strings"
)

// Row markers of the ZPL ASCII compression scheme.
const (
	markBlank  = ',' // rest of the row is 0
	markSolid  = '!' // rest of the row is 1
	markRepeat = ':' // row equals the previous one
)

const hexDigits = "0123456789abcdef"

// EncodeRow appends the compressed form of one packed row to sb. prev is the
// row before it, or nil for the first row.
func EncodeRow(sb *strings.Builder, row, prev []byte) error {
	switch {
	case allBytes(row, 0x00):
		sb.WriteByte(markBlank)
		return nil
	case allBytes(row, 0xff):
		sb.WriteByte(markSolid)
		return nil
	case prev != nil && bytes.Equal(row, prev):
		sb.WriteByte(markRepeat)
		return nil
	}

	nibbles := make([]byte, 0, len(row)*2)
	for _, b := range row {
		nibbles = append(nibbles, b>>4, b&0x0f)
	}

	for i := 0; i < len(nibbles); {
		n := nibbles[i]
		run := 1
		for i+run < len(nibbles) && run < maxRun && nibbles[i+run] == n {
			run++
		}

		if run <= 2 {
			sb.WriteByte(hexDigits[n])
			i++
			continue
		}

		if i+run == len(nibbles) && (n == 0x0 || n == 0xf) {
			// a run starting mid byte flushes its first nibble on its own
			if n == 0x0 {
				if i%2 == 1 {
					sb.WriteByte('0')
				}
				sb.WriteByte(markBlank)
			} else {
				if i%2 == 1 {
					sb.WriteByte('F')
				}
				sb.WriteByte(markSolid)
			}
			return nil
		}

		code, err := RepeatCode(run)
		if err != nil {
			return err
		}
		sb.WriteString(code)
		sb.WriteByte(hexDigits[n])
		i += run
	}
	return nil
}

// EncodeRows compresses all rows of an image in order.
func EncodeRows(rows [][]byte) (string, error) {
	var sb strings.Builder
	var prev []byte
	for _, row := range rows {
		if err := EncodeRow(&sb, row, prev); err != nil {
			return "", err
		}
		prev = row
	}
	return sb.String(), nil
}

func allBytes(row []byte, v byte) bool {
	for _, b := range row {
		if b != v {
			return false
		}
	}
	return true
}
