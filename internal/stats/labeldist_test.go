package stats

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgtools/imgstats/internal/data"
	"github.com/imgtools/imgstats/internal/report"
)

// feedCatsAndDogs writes two cat and three dog records.
func feedCatsAndDogs(t *testing.T, w *LabelDist) {
	t.Helper()
	require.NoError(t, w.Init())
	require.NoError(t, w.Write(classificationRecord("1.png", "cat")))
	require.NoError(t, w.Write(classificationRecord("2.png", "cat")))
	require.NoError(t, w.Write(classificationRecord("3.png", "dog")))
	require.NoError(t, w.Write(classificationRecord("4.png", "dog")))
	require.NoError(t, w.Write(classificationRecord("5.png", "dog")))
}

func TestLabelDistCounts(t *testing.T) {
	var buf bytes.Buffer
	w := NewLabelDist(LabelDistOptions{
		Output:     report.Writer{Format: report.FormatJSON, Stdout: &buf},
		OutputType: OutputCounts,
		Log:        testLog(),
	})
	feedCatsAndDogs(t, w)
	require.NoError(t, w.Finalize())

	var counts map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &counts))
	assert.Equal(t, map[string]int{"cat": 2, "dog": 3}, counts)
}

func TestLabelDistPercentages(t *testing.T) {
	var buf bytes.Buffer
	w := NewLabelDist(LabelDistOptions{
		Output:     report.Writer{Format: report.FormatJSON, Stdout: &buf},
		OutputType: OutputPercentages,
		Log:        testLog(),
	})
	feedCatsAndDogs(t, w)
	require.NoError(t, w.Finalize())

	var dist map[string]float64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dist))
	assert.InDelta(t, 0.4, dist["cat"], 1e-9)
	assert.InDelta(t, 0.6, dist["dog"], 1e-9)

	sum := 0.0
	for _, v := range dist {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "percentages must sum to 1")
}

func TestLabelDistCorrection(t *testing.T) {
	var buf bytes.Buffer
	w := NewLabelDist(LabelDistOptions{
		Output:     report.Writer{Format: report.FormatJSON, Stdout: &buf},
		OutputType: OutputCorrection,
		Log:        testLog(),
	})
	feedCatsAndDogs(t, w)
	require.NoError(t, w.Finalize())

	var dist map[string]float64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dist))
	assert.Equal(t, 1.0, dist["cat"], "rarest label gets probability 1")
	assert.InDelta(t, 2.0/3.0, dist["dog"], 1e-9)
	for label, p := range dist {
		assert.Greater(t, p, 0.0, label)
		assert.LessOrEqual(t, p, 1.0, label)
	}
}

func TestLabelDistDetectionSkipsUnlabeled(t *testing.T) {
	var buf bytes.Buffer
	w := NewLabelDist(LabelDistOptions{
		Output: report.Writer{Format: report.FormatJSON, Stdout: &buf},
		Log:    testLog(),
	})
	require.NoError(t, w.Init())

	require.NoError(t, w.Write(detectionRecord("1.png",
		labeledObject("cat", 10, 10),
		labeledObject("cat", 5, 5),
		data.Object{Width: 3, Height: 3}, // no label key
	)))
	require.NoError(t, w.Finalize())

	var counts map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &counts))
	assert.Equal(t, map[string]int{"cat": 2}, counts)
}

func TestLabelDistSegmentationCountsLayers(t *testing.T) {
	var buf bytes.Buffer
	w := NewLabelDist(LabelDistOptions{
		Output: report.Writer{Format: report.FormatJSON, Stdout: &buf},
		Log:    testLog(),
	})
	require.NoError(t, w.Init())

	rec := segmentationRecord("1.png", 10, 10, map[string]string{"cat": "cat.png", "dog": "dog.png"})
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Finalize())

	var counts map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &counts))
	assert.Equal(t, map[string]int{"cat": 2, "dog": 2}, counts)
}

func TestLabelDistDeprecatedPercentagesFlag(t *testing.T) {
	log, captured := captureLog(t)
	var buf bytes.Buffer
	w := NewLabelDist(LabelDistOptions{
		Output:      report.Writer{Format: report.FormatJSON, Stdout: &buf},
		Percentages: true,
		Log:         log,
	})
	require.NoError(t, w.Init())
	require.NoError(t, w.Write(classificationRecord("1.png", "cat")))
	require.NoError(t, w.Finalize())

	require.NotEmpty(t, captured.messages, "deprecation must be surfaced at warning level")

	var dist map[string]float64
	require.NoError(t, json.Unmarshal(buf.Bytes(), &dist))
	assert.InDelta(t, 1.0, dist["cat"], 1e-9, "-p alone still selects percentages")
}

func TestLabelDistOutputTypeWinsOverDeprecatedFlag(t *testing.T) {
	log, captured := captureLog(t)
	var buf bytes.Buffer
	w := NewLabelDist(LabelDistOptions{
		Output:      report.Writer{Format: report.FormatJSON, Stdout: &buf},
		OutputType:  OutputCounts,
		Percentages: true,
		Log:         log,
	})
	feedCatsAndDogs(t, w)
	require.NoError(t, w.Finalize())

	require.NotEmpty(t, captured.messages)

	var counts map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &counts),
		"with both flags, -t selects the output type")
	assert.Equal(t, map[string]int{"cat": 2, "dog": 3}, counts)
}

func TestLabelDistTextOutput(t *testing.T) {
	var buf bytes.Buffer
	w := NewLabelDist(LabelDistOptions{
		Output: report.Writer{Format: report.FormatText, Stdout: &buf},
		Log:    testLog(),
	})
	feedCatsAndDogs(t, w)
	require.NoError(t, w.Finalize())

	assert.Equal(t, "cat: 2\ndog: 3\n", buf.String())
}

func TestLabelDistCSVOutput(t *testing.T) {
	var buf bytes.Buffer
	w := NewLabelDist(LabelDistOptions{
		Output: report.Writer{Format: report.FormatCSV, Stdout: &buf},
		Log:    testLog(),
	})
	feedCatsAndDogs(t, w)
	require.NoError(t, w.Finalize())

	assert.Equal(t, "Label,Count\ncat,2\ndog,3\n", buf.String())
}

func TestLabelDistUnknownOutputType(t *testing.T) {
	w := NewLabelDist(LabelDistOptions{
		Output:     report.Writer{Format: report.FormatJSON},
		OutputType: "bogus",
		Log:        testLog(),
	})
	assert.Error(t, w.Init())
}
