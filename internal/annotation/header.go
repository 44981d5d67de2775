package annotation

import (
	"fmt"
	"io"
	"time"
)

// DateLayout is the ISO form used in generated headers and GPAD 2.0 rows.
const DateLayout = "2006-01-02"

// Header is the metadata written ahead of generated rows.
type Header struct {
	// Format is the directive prefix: "gaf" or "gpa".
	Format      string
	Version     string
	GeneratedBy string
	Date        time.Time
}

// Lines renders the header in its fixed order.
func (h Header) Lines() []string {
	return []string{
		fmt.Sprintf("!%s-version: %s", h.Format, h.Version),
		"!Generated by: " + h.GeneratedBy,
		"!Date Generated: " + h.Date.Format(DateLayout),
	}
}

// WriteTo writes the header lines to w.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for _, l := range h.Lines() {
		m, err := io.WriteString(w, l+"\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
