package output_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/podaudit/podaudit/internal/output"
)

type sample struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("json is indented", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := output.Write(&buf, output.FormatJSON, sample{Name: "web", Count: 2})
		require.NoError(t, err)
		require.JSONEq(t, `{"name":"web","count":2}`, buf.String())
		require.Contains(t, buf.String(), "\n  \"name\"")
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := output.Write(&buf, output.FormatYAML, sample{Name: "web", Count: 2})
		require.NoError(t, err)
		require.Contains(t, buf.String(), "name: web")
		require.Contains(t, buf.String(), "count: 2")
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := output.Write(&buf, "toml", sample{})
		require.Error(t, err)
		require.Zero(t, buf.Len())
	})
}
