// Package pdftest builds small uncompressed PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Build writes a minimal PDF with one page per entry, each line drawn
// with Helvetica one row below the previous. Lines must not contain
// unbalanced parentheses or backslashes.
func Build(pages [][]string) []byte {
	streams := make([]string, len(pages))
	for i, lines := range pages {
		streams[i] = Stream(lines...)
	}
	return BuildStreams(streams)
}

// Stream returns the content stream drawing lines 16 points apart, starting
// at the top left of the page. No lines yields an empty stream.
func Stream(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}

	var stream strings.Builder
	stream.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for j, line := range lines {
		if j > 0 {
			stream.WriteString("0 -16 Td\n")
		}
		fmt.Fprintf(&stream, "(%s) Tj\n", line)
	}
	stream.WriteString("ET\n")
	return stream.String()
}

// BuildStreams writes a PDF with one page per raw content stream, with
// Helvetica available as /F1.
func BuildStreams(streams []string) []byte {
	var objects []string
	kids := make([]string, len(streams))
	for i := range streams {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(streams)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)

	for i, stream := range streams {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}
