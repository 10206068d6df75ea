package cv

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/bussin-buses/trafficwatch/pkg/util"
	"go.uber.org/zap"
)

// Analyzer estimates vehicle count and congestion level for one camera
// image. Implementations wrap whatever transport actually runs the
// detector, keeping the worker pool independent of it.
type Analyzer interface {
	Analyze(ctx context.Context, imagePath string) (da.AnalysisResult, error)
}

// PythonDetector shells out to the vehicle-detection script once per
// image. The script prints progress lines plus exactly one JSON object on
// stdout; everything else is ignored.
type PythonDetector struct {
	pythonPath string
	scriptPath string
	log        *zap.Logger
}

func NewPythonDetector(pythonPath, scriptPath string, log *zap.Logger) *PythonDetector {
	return &PythonDetector{
		pythonPath: pythonPath,
		scriptPath: scriptPath,
		log:        log,
	}
}

func (d *PythonDetector) Analyze(ctx context.Context, imagePath string) (da.AnalysisResult, error) {
	cmd := exec.CommandContext(ctx, d.pythonPath, d.scriptPath, imagePath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return da.AnalysisResult{}, util.WrapErrorf(err, util.ErrInternalServerError,
			"vehicle detector failed for %s: %s", imagePath, strings.TrimSpace(stderr.String()))
	}

	return parseDetectorOutput(stdout.String())
}

// parseDetectorOutput extracts the result object from detector stdout. The
// last line that looks like a JSON object wins.
func parseDetectorOutput(output string) (da.AnalysisResult, error) {
	var jsonLine string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "{") && strings.HasSuffix(line, "}") {
			jsonLine = line
		}
	}
	if jsonLine == "" {
		return da.AnalysisResult{}, util.WrapErrorf(nil, util.ErrInternalServerError,
			"vehicle detector printed no result object")
	}

	var result da.AnalysisResult
	if err := json.Unmarshal([]byte(jsonLine), &result); err != nil {
		return da.AnalysisResult{}, util.WrapErrorf(err, util.ErrInternalServerError,
			"malformed detector output: %s", jsonLine)
	}
	return result, nil
}
