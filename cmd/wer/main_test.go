package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// runCLI runs the command with HOME pointed at an empty directory so no
// user config is picked up.
func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunPair(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		ref  string
		hyp  string
		want string
	}{
		{"identical", "the cat sat on the mat", "the cat sat on the mat", "The Word Error Rate (WER) is: 0 %\n"},
		{"substitution", "the cat sat on the mat", "the dog sat on the mat", "The Word Error Rate (WER) is: 16.67 %\n"},
		{"insertion", "hello world", "hello there world", "The Word Error Rate (WER) is: 50 %\n"},
		{"deletion", "a b c d", "a c d", "The Word Error Rate (WER) is: 25 %\n"},
		{"normalized", "Hello, World!", "hello world", "The Word Error Rate (WER) is: 0 %\n"},
		{"multiline", "the cat\nsat on\nthe mat\n", "the cat sat on the mat", "The Word Error Rate (WER) is: 0 %\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := writeFile(t, dir, tt.name+"-ref.txt", tt.ref)
			hyp := writeFile(t, dir, tt.name+"-hyp.txt", tt.hyp)

			code, out, errOut := runCLI(t, "", ref, hyp)
			if code != exitOK {
				t.Fatalf("exit code = %d, stderr = %s", code, errOut)
			}
			if out != tt.want {
				t.Errorf("stdout = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestRunEmptyTranscript(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "the cat")
	empty := writeFile(t, dir, "empty.txt", " ,.!? \n")

	for _, args := range [][]string{{empty, ref}, {ref, empty}} {
		code, out, errOut := runCLI(t, "", args...)
		if code != exitFail {
			t.Errorf("run(%v) exit code = %d, want %d", args, code, exitFail)
		}
		if out != "" {
			t.Errorf("run(%v) stdout = %q, want empty", args, out)
		}
		if !strings.Contains(errOut, emptyMessage) {
			t.Errorf("run(%v) stderr = %q, want %q", args, errOut, emptyMessage)
		}
	}
}

func TestRunUnreadableSource(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "the cat")
	missing := filepath.Join(dir, "missing.txt")

	code, _, errOut := runCLI(t, "", ref, missing)
	if code != exitFail {
		t.Errorf("exit code = %d, want %d", code, exitFail)
	}
	if !strings.Contains(errOut, missing) {
		t.Errorf("stderr = %q, want it to name %s", errOut, missing)
	}
}

func TestRunPrompt(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "hello world")
	hyp := writeFile(t, dir, "hyp.txt", "hello there world")

	code, out, errOut := runCLI(t, ref+"\n"+hyp+"\n")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "Enter the path to the original transcription file: ") ||
		!strings.Contains(out, "Enter the path to the target transcription file: ") {
		t.Errorf("stdout missing prompts: %q", out)
	}
	if !strings.HasSuffix(out, "The Word Error Rate (WER) is: 50 %\n") {
		t.Errorf("stdout = %q", out)
	}
}

func TestRunPromptNoInput(t *testing.T) {
	code, _, _ := runCLI(t, "")
	if code != exitFail {
		t.Errorf("exit code = %d, want %d", code, exitFail)
	}
}

func TestRunFlags(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "Hello, World!")
	hyp := writeFile(t, dir, "hyp.txt", "hello world")

	t.Run("raw", func(t *testing.T) {
		code, out, _ := runCLI(t, "", "-raw", ref, hyp)
		if code != exitOK || out != "The Word Error Rate (WER) is: 100 %\n" {
			t.Errorf("code = %d, stdout = %q", code, out)
		}
	})

	t.Run("precision_and_detail", func(t *testing.T) {
		ref6 := writeFile(t, dir, "ref6.txt", "the cat sat on the mat")
		hyp6 := writeFile(t, dir, "hyp6.txt", "the dog sat on the mat")
		code, out, _ := runCLI(t, "", "-precision", "6", "-detail", ref6, hyp6)
		if code != exitOK {
			t.Fatalf("exit code = %d", code)
		}
		if !strings.HasPrefix(out, "The Word Error Rate (WER) is: 16.6667 %\n") {
			t.Errorf("stdout = %q", out)
		}
		if !strings.Contains(out, "Substitutions: 1") {
			t.Errorf("stdout missing breakdown: %q", out)
		}
	})

	t.Run("bad_precision", func(t *testing.T) {
		code, _, _ := runCLI(t, "", "-precision", "40", ref, hyp)
		if code != exitFail {
			t.Errorf("exit code = %d, want %d", code, exitFail)
		}
	})

	t.Run("one_argument", func(t *testing.T) {
		code, _, _ := runCLI(t, "", ref)
		if code != exitUsage {
			t.Errorf("exit code = %d, want %d", code, exitUsage)
		}
	})

	t.Run("metrics_textfile", func(t *testing.T) {
		prom := filepath.Join(t.TempDir(), "wer.prom")
		code, _, _ := runCLI(t, "", "-metrics-textfile", prom, ref, hyp)
		if code != exitOK {
			t.Fatalf("exit code = %d", code)
		}
		data, err := os.ReadFile(prom)
		if err != nil {
			t.Fatalf("metrics file not written: %v", err)
		}
		if !strings.Contains(string(data), `wer_percent{pair="hyp.txt"} 0`) {
			t.Errorf("metrics file = %s", data)
		}
	})
}

func TestRunFailedPairMetrics(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "the cat")
	empty := writeFile(t, dir, "empty.txt", " ... \n")

	tests := []struct {
		name string
		hyp  string
	}{
		{"missing", filepath.Join(dir, "missing.txt")},
		{"empty", empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prom := filepath.Join(t.TempDir(), "wer.prom")
			code, _, _ := runCLI(t, "", "-metrics-textfile", prom, ref, tt.hyp)
			if code != exitFail {
				t.Errorf("exit code = %d, want %d", code, exitFail)
			}
			data, err := os.ReadFile(prom)
			if err != nil {
				t.Fatalf("metrics file not written: %v", err)
			}
			if !strings.Contains(string(data), "wer_pairs_failed_total 1") {
				t.Errorf("metrics file = %s", data)
			}
			if strings.Contains(string(data), "wer_percent{") {
				t.Errorf("failed pair should leave no wer_percent series:\n%s", data)
			}
		})
	}
}

func TestRunStripTimestamps(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "hello world")
	hyp := writeFile(t, dir, "hyp.txt", "[00:00:01,000 - 00:00:02,000] Hello world\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default", nil, "The Word Error Rate (WER) is: 100 %\n"},
		{"strip", []string{"-strip-timestamps"}, "The Word Error Rate (WER) is: 0 %\n"},
		{"raw_keeps_stamps", []string{"-raw", "-strip-timestamps"}, "The Word Error Rate (WER) is: 200 %\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(t, "", append(tt.args, ref, hyp)...)
			if code != exitOK {
				t.Fatalf("exit code = %d, stderr = %s", code, errOut)
			}
			if out != tt.want {
				t.Errorf("stdout = %q, want %q", out, tt.want)
			}
		})
	}
}

// lockedBuffer is a bytes.Buffer safe to read while run writes to it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunWatch(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "hello world")
	hyp := writeFile(t, dir, "hyp.txt", "hello world")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout, stderr lockedBuffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"-watch", ref, hyp}, strings.NewReader(""), &stdout, &stderr)
	}()

	const initial = "The Word Error Rate (WER) is: 0 %\n"
	const rescored = "The Word Error Rate (WER) is: 50 %\n"
	deadline := time.After(5 * time.Second)
	for !strings.Contains(stdout.String(), initial) {
		select {
		case <-deadline:
			t.Fatalf("no initial score, stdout = %q, stderr = %s", stdout.String(), stderr.String())
		case code := <-done:
			t.Fatalf("run exited early with %d, stderr = %s", code, stderr.String())
		case <-time.After(20 * time.Millisecond):
		}
	}

	for !strings.Contains(stdout.String(), rescored) {
		// Keep rewriting until the watcher is up and picks a write up.
		writeFile(t, dir, "hyp.txt", "hello there world")
		select {
		case <-deadline:
			cancel()
			t.Fatalf("no re-score after edit, stdout = %q, stderr = %s", stdout.String(), stderr.String())
		case code := <-done:
			t.Fatalf("run exited early with %d, stderr = %s", code, stderr.String())
		case <-time.After(300 * time.Millisecond):
		}
	}

	if !strings.HasPrefix(stdout.String(), initial) {
		t.Errorf("stdout = %q, want the initial score first", stdout.String())
	}

	cancel()
	select {
	case code := <-done:
		if code != exitOK {
			t.Errorf("exit code = %d, want %d", code, exitOK)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRunConfigFile(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.txt", "Hello, World!")
	hyp := writeFile(t, dir, "hyp.txt", "hello world")
	cfg := writeFile(t, dir, "config.yaml", "normalize: false\nprecision: 2\n")

	code, out, _ := runCLI(t, "", "-config", cfg, ref, hyp)
	if code != exitOK || out != "The Word Error Rate (WER) is: 1e+02 %\n" {
		t.Errorf("code = %d, stdout = %q", code, out)
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ref.txt", "the cat sat on the mat")
	writeFile(t, dir, "hyp.txt", "the dog sat on the mat")
	manifest := writeFile(t, dir, "manifest.tsv", "# pairs\nclip1\tref.txt\thyp.txt\n")

	code, out, errOut := runCLI(t, "", "-batch", manifest, "-format", "json", "-workers", "2")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}

	var report struct {
		Pairs     int     `json:"pairs"`
		CorpusWER float64 `json:"corpus_wer"`
		Items     []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out)
	}
	if report.Pairs != 1 || len(report.Items) != 1 || report.Items[0].ID != "clip1" {
		t.Errorf("report = %+v", report)
	}
	if report.CorpusWER < 16.66 || report.CorpusWER > 16.67 {
		t.Errorf("CorpusWER = %v", report.CorpusWER)
	}
}

func TestRunBatchFailedPair(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ref.txt", "the cat")
	manifest := writeFile(t, dir, "manifest.tsv", "ok\tref.txt\tref.txt\nbad\tref.txt\tmissing.txt\n")

	code, out, _ := runCLI(t, "", "-batch", manifest)
	if code != exitFail {
		t.Errorf("exit code = %d, want %d", code, exitFail)
	}
	if !strings.Contains(out, "1 scored, 1 failed") {
		t.Errorf("stdout = %q", out)
	}
}

func TestRunBatchBadFormat(t *testing.T) {
	code, _, _ := runCLI(t, "", "-batch", "manifest.tsv", "-format", "xml")
	if code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
}

func TestRunInitConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-init-config"}, strings.NewReader(""), &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %s", code, stderr.String())
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "gostt-wer", "config.yaml")); err != nil {
		t.Errorf("config not written: %v", err)
	}
}
