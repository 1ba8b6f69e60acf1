package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetrascience/ts-agent-monitoring/internal/compression"
	"github.com/tetrascience/ts-agent-monitoring/internal/processor"
	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

func executeCommand(root *cobra.Command, args ...string) (stdout string, err error) {
	// Capture os.Stdout since CLI uses fmt.Printf directly
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	root.SetArgs(args)
	err = root.Execute()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), err
}

func createTestRootCmd() *cobra.Command {
	jsonOutput = false
	configPath = ""
	logLevel = ""
	processDryRun = false
	processWatchedPaths = nil
	matchWatchedPaths = nil
	matchConfigFile = ""
	encodeLevel = "default"
	encodeEvent = false
	encodeOrg = ""
	encodeAgent = ""

	cmd := &cobra.Command{
		Use:           "agentmon",
		Short:         "agentmon - metrics from file-monitoring agent logs",
		Long:          `agentmon turns the structured log batches written by TetraScience file-monitoring agents into operational metrics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to agentmon.yaml")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override")

	cmd.AddCommand(processCmd)
	cmd.AddCommand(encodeCmd)
	cmd.AddCommand(matchCmd)
	cmd.AddCommand(configCmd)
	cmd.AddCommand(completionCmd)

	return cmd
}

const uploadMessage = `{"event":{"type":"agents.filelog.fileUploadCompleted.v1","timestamp":"2024-01-15T10:00:30Z","component":{"id":"agent-1","type":"agent"},"data":{"osFilePath":"c:\\test1\\test.txt","fileLastModifiedDate":"2024-01-15T10:00:00Z","fileCreateDate":"2024-01-15T09:00:00Z"}}}`

func testBatch() *model.LogBatch {
	return &model.LogBatch{
		Source: "/agents/acme/agent-1",
		Stream: "stream",
		Lines: []model.LogLine{
			{ID: "1", Timestamp: 1, Message: uploadMessage},
			{ID: "2", Timestamp: 2, Message: "plain text"},
		},
	}
}

func writeBatchDocument(t *testing.T, dir string) string {
	t.Helper()
	b := testBatch()
	doc := map[string]any{
		"messageType": "DATA_MESSAGE",
		"logGroup":    b.Source,
		"logStream":   b.Stream,
		"logEvents": []map[string]any{
			{"id": b.Lines[0].ID, "timestamp": b.Lines[0].Timestamp, "message": b.Lines[0].Message},
			{"id": b.Lines[1].ID, "timestamp": b.Lines[1].Timestamp, "message": b.Lines[1].Message},
		},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func writeEvent(t *testing.T, dir string) string {
	t.Helper()
	data, err := processor.EncodeBatch(testBatch(), compression.NewCompressor(compression.LevelDefault))
	require.NoError(t, err)
	raw, err := json.Marshal(map[string]any{"awslogs": map[string]string{"data": data}})
	require.NoError(t, err)
	path := filepath.Join(dir, "event.json")
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func TestRootCommand_Help(t *testing.T) {
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "file-monitoring agents")
}

func TestRootCommand_JSONFlag(t *testing.T) {
	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "--json", "--help")
	require.NoError(t, err)
	assert.True(t, jsonOutput)
}

func TestMatchCommand(t *testing.T) {
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "match", "--watched-path", `C:\data`, `c:\DATA\run\a.csv`, `d:\other`)
	require.NoError(t, err)
	assert.Contains(t, stdout, `c:\DATA\run\a.csv -> `)
	assert.Contains(t, stdout, `C:\data`)
	assert.Contains(t, stdout, "no match")
}

func TestMatchCommand_JSON(t *testing.T) {
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--json", "match", "-w", `C:\data`, "-w", `C:\data\deep`, `C:\data\deep\x`)
	require.NoError(t, err)

	var out matchOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Results, 1)
	assert.True(t, out.Results[0].Matched)
	assert.Equal(t, `C:\data`, out.Results[0].Watched, "the ancestor wins")
}

func TestMatchCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent.json")
	body := `{"id":"cfg","config":{"services_configuration":{"fileWatcher":{"paths":[{"path":"E:\\export"}]}}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--json", "match", "--config-file", path, `E:\export\f.txt`)
	require.NoError(t, err)

	var out matchOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Len(t, string(out.Fingerprint), 64)
	assert.Equal(t, []string{`E:\export`}, out.Watched)
	assert.True(t, out.Results[0].Matched)
}

func TestMatchCommand_NoWatchedPaths(t *testing.T) {
	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "match", `C:\x`)
	assert.Error(t, err)
}

func TestEncodeCommand(t *testing.T) {
	path := writeBatchDocument(t, t.TempDir())

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "encode", "--level", "fast", path)
	require.NoError(t, err)

	batch, err := processor.DecodeBatch(stdout)
	require.NoError(t, err)
	assert.Equal(t, "/agents/acme/agent-1", batch.Source)
	assert.Len(t, batch.Lines, 2)
}

func TestEncodeCommand_OverridesLogGroup(t *testing.T) {
	path := writeBatchDocument(t, t.TempDir())

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "encode", "--agent", "agent-9", path)
	require.NoError(t, err)

	batch, err := processor.DecodeBatch(stdout)
	require.NoError(t, err)
	assert.Equal(t, "/agents/acme/agent-9", batch.Source)
	assert.Equal(t, model.AgentIdentity{OrgSlug: "acme", AgentID: "agent-9"}, batch.Identity())
}

func TestEncodeCommand_Event(t *testing.T) {
	path := writeBatchDocument(t, t.TempDir())

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "encode", "--event", path)
	require.NoError(t, err)

	data, err := extractData([]byte(stdout))
	require.NoError(t, err)
	_, err = processor.DecodeBatch(data)
	assert.NoError(t, err)
}

func TestEncodeCommand_BadLevel(t *testing.T) {
	path := writeBatchDocument(t, t.TempDir())

	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "encode", "--level", "extreme", path)
	assert.Error(t, err)
}

func TestProcessCommand_DryRun(t *testing.T) {
	path := writeEvent(t, t.TempDir())

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--json", "process", "--dry-run", "--watched-path", `c:\test1\`, path)
	require.NoError(t, err)

	var out struct {
		Result processor.Result     `json:"result"`
		Groups []model.MetricGroup `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 2, out.Result.Lines)
	assert.Equal(t, 1, out.Result.Skipped)
	assert.Equal(t, 1, out.Result.Published)
	require.Len(t, out.Groups, 1)

	r := out.Groups[0].Records[0]
	assert.Equal(t, model.MetricFileUploadLatency, r.Name)
	assert.Equal(t, 30.0, r.Value)
	p, ok := r.Dimension(model.DimensionPath)
	assert.True(t, ok)
	assert.Equal(t, `c:\test1\`, p)
}

func TestProcessCommand_TextOutput(t *testing.T) {
	path := writeEvent(t, t.TempDir())

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "process", "--dry-run", "--watched-path", `c:\test1\`, path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "processed")
	assert.Contains(t, stdout, "FileUploadLatencyInSeconds")
	assert.Contains(t, stdout, `path=c:\test1\`)
}

func TestProcessCommand_InvalidInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"awslogs":{"data":"@@@"}}`), 0644))

	cmd := createTestRootCmd()
	_, err := executeCommand(cmd, "process", "--dry-run", "--watched-path", `c:\x`, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_DECODE")
}

func TestConfigShow_RedactsSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agentmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  url: https://api.example.com\n  auth_token: super-secret\n"), 0644))

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "https://api.example.com")
	assert.NotContains(t, stdout, "super-secret")
	assert.Contains(t, stdout, "<redacted>")
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("api:\n  url: https://api.example.com\n  auth_token: tok\n"), 0644))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("sink:\n  type: kafka\n"), 0644))

	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--config", good, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "valid")

	cmd = createTestRootCmd()
	_, err = executeCommand(cmd, "--config", bad, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_CONFIG_INVALID")
}

func TestCompletionCommand(t *testing.T) {
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "agentmon")
}

func TestMatchCommand_CollapsesEquivalentWatchedPaths(t *testing.T) {
	cmd := createTestRootCmd()
	stdout, err := executeCommand(cmd, "--json", "match",
		"-w", `C:\Data\`, "-w", `c:\data`, "-w", `D:\export`, `c:\DATA\x.csv`)
	require.NoError(t, err)

	var out matchOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, []string{`c:\data`, `D:\export`}, out.Watched)
	assert.Equal(t, `c:\data`, out.Results[0].Watched)
}

func TestLambdaArgs(t *testing.T) {
	env := func(vars map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		}
	}
	runtime := env(map[string]string{envLambdaRuntimeAPI: "127.0.0.1:9001"})

	assert.Equal(t, []string{"lambda"}, lambdaArgs(nil, runtime))
	assert.Nil(t, lambdaArgs([]string{"serve"}, runtime), "explicit commands win")
	assert.Nil(t, lambdaArgs(nil, env(nil)))
	assert.Nil(t, lambdaArgs(nil, env(map[string]string{envLambdaRuntimeAPI: ""})))
}
