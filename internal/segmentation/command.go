package segmentation

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandSegmenter runs the inference script once per image. The script is
// called as `<command> <args...> <image> <output.json>` and must write the
// result JSON to the output path.
type CommandSegmenter struct {
	command string
	args    []string
	workDir string
}

// NewCommandSegmenter creates a CommandSegmenter. An empty workDir uses the
// system temp directory.
func NewCommandSegmenter(command string, args []string, workDir string) *CommandSegmenter {
	return &CommandSegmenter{command: command, args: args, workDir: workDir}
}

// Segment runs the command and reads back its output
func (s *CommandSegmenter) Segment(ctx context.Context, imagePath string) (*Result, error) {
	out, err := os.CreateTemp(s.workDir, "segment-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	args := append(append([]string{}, s.args...), imagePath, outPath)
	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.Dir = filepath.Dir(imagePath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("segmentation failed for %s: %w, output: %s",
			filepath.Base(imagePath), err, strings.TrimSpace(string(output)))
	}

	// relative mask paths are relative to the command's working directory
	return readResultFile(outPath, cmd.Dir)
}
