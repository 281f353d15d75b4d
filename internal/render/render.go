// Package render produces the finished video for a job by overlaying
// the transliterated values on the template at fixed timeline slots.
package render

import (
	"context"
	"strings"

	"seiza/internal/translit"
)

// Renderer turns a spec into a finished artifact on local disk and
// returns its path. Implementations honor context cancellation and
// remove their output on failure; the caller removes it after upload.
type Renderer interface {
	Render(ctx context.Context, spec Spec) (string, error)
}

// Spec describes one render: the job, the submitted name, and the six
// overlay texts in timeline order.
type Spec struct {
	JobID string
	Name  string
	Texts [6]string
}

// NewSpec lays out the overlay slots from a transliteration result:
// the three Japanese values, the combined line, the katakana name,
// and the latin name.
func NewSpec(jobID, name string, tr translit.Result) Spec {
	return Spec{
		JobID: jobID,
		Name:  name,
		Texts: [6]string{
			tr.Japanese[0],
			tr.Japanese[1],
			tr.Japanese[2],
			strings.Join(tr.Japanese[:], " "),
			tr.JapaneseName,
			name,
		},
	}
}

// slotWindows times each overlay slot against the template, in
// seconds. The last slot holds to the end of the video.
var slotWindows = [6][2]string{
	{"1.435", "2.670"},
	{"4.05", "5.240"},
	{"6.63", "7.730"},
	{"10.740", "11.635"},
	{"13.240", "15.600"},
	{"15.601", "999.0"},
}
