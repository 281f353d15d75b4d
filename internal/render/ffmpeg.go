package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// FFmpeg renders by drawing the slot texts over the template video in
// a single pass, copying the audio stream untouched.
type FFmpeg struct {
	bin      string
	template string
	fontFile string
}

func NewFFmpeg(bin, template, fontFile string) *FFmpeg {
	return &FFmpeg{bin: bin, template: template, fontFile: fontFile}
}

func (f *FFmpeg) Render(ctx context.Context, spec Spec) (string, error) {
	workDir, err := os.MkdirTemp("", "overlay-"+spec.JobID+"-")
	if err != nil {
		return "", fmt.Errorf("overlay workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	slots, err := writeSlotFiles(workDir, spec.Texts)
	if err != nil {
		return "", fmt.Errorf("overlay texts: %w", err)
	}

	out, err := os.CreateTemp("", "artifact-"+spec.JobID+"-*.mp4")
	if err != nil {
		return "", fmt.Errorf("artifact file: %w", err)
	}
	outPath := out.Name()
	out.Close()

	cmd := exec.CommandContext(ctx, f.bin, buildArgs(f.template, f.fontFile, outPath, slots)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.String(), 500))
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		os.Remove(outPath)
		return "", fmt.Errorf("ffmpeg wrote no output")
	}
	return outPath, nil
}

// writeSlotFiles writes each overlay text to its own file for drawtext
// textfile references. Files sidestep filtergraph escaping of quotes
// and commas in names.
func writeSlotFiles(dir string, texts [6]string) ([6]string, error) {
	var paths [6]string
	for i, text := range texts {
		p := filepath.Join(dir, fmt.Sprintf("slot%d.txt", i))
		if err := os.WriteFile(p, []byte(text), 0o600); err != nil {
			return paths, err
		}
		paths[i] = p
	}
	return paths, nil
}

// buildArgs assembles the ffmpeg invocation: one drawtext filter per
// slot, enabled only inside its timeline window, centered, with the
// two name slots shifted up clear of the lower art. Sizes and the
// 660px shift are tuned against the 1080x1920 template and scale with
// the frame height.
func buildArgs(template, fontFile, out string, slots [6]string) []string {
	filters := make([]string, 0, len(slots))
	for i, slot := range slots {
		w := slotWindows[i]
		y := "(h-text_h)/2"
		if i >= 4 {
			y = "(h-text_h)/2-660*h/1920"
		}
		filters = append(filters, fmt.Sprintf(
			"drawtext=fontfile=%s:textfile=%s:fontcolor=red:fontsize=180*h/1920:x=(w-text_w)/2:y=%s:enable='between(t,%s,%s)'",
			fontFile, slot, y, w[0], w[1]))
	}

	args := []string{"-y", "-i", template, "-vf", strings.Join(filters, ",")}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "30",
		"-threads", "1",
		"-tune", "fastdecode",
		"-c:a", "copy",
		out,
	)
	return args
}

// tail returns at most n bytes from the end of s, where ffmpeg puts
// the failure reason.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
