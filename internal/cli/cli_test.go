package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func sqliteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VERITAS_LOG_MODE", "quiet")
	t.Setenv("VERITAS_DATABASE_DRIVER", "sqlite")
	t.Setenv("VERITAS_DATABASE_DSN", filepath.Join(t.TempDir(), "veritas.db"))
	t.Setenv("VERITAS_RECOMPUTE_DISPATCHER", "inline")
	t.Setenv("VERITAS_REDIS_ADDR", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("TEMPORAL_ADDRESS", "")
	t.Setenv("METRICS_ENABLED", "")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "veritas ") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigShow_MasksPassword(t *testing.T) {
	sqliteEnv(t)
	t.Setenv("VERITAS_DATABASE_PASSWORD", "hunter2")
	out, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Fatalf("password leaked:\n%s", out)
	}
	for _, want := range []string{"true_threshold:", "dispatcher: inline", "driver: sqlite"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRumorLifecycle(t *testing.T) {
	sqliteEnv(t)
	if _, err := execute(t, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	out, err := execute(t, "rumors", "submit", "the north gate closes early on friday")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := strings.TrimSpace(out)
	if len(id) != 36 {
		t.Fatalf("expected a rumor id, got %q", out)
	}

	out, err = execute(t, "recompute", "rumor", id)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !strings.Contains(out, "trust_score:    0.50000") {
		t.Fatalf("a rumor without votes should stay neutral:\n%s", out)
	}

	out, err = execute(t, "rumors", "list", "--filter", "active", "--sort", "latest")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, id) {
		t.Fatalf("active feed missing %s:\n%s", id, out)
	}

	out, err = execute(t, "settle", id)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !strings.Contains(out, "outcome:      UNCERTAIN") {
		t.Fatalf("unexpected settlement:\n%s", out)
	}

	out, err = execute(t, "settle", id)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if !strings.Contains(out, "ALREADY_SETTLED") {
		t.Fatalf("second settle should be a no-op:\n%s", out)
	}

	out, err = execute(t, "rumors", "list", "--filter", "active", "--sort", "latest")
	if err != nil {
		t.Fatalf("list after settle: %v", err)
	}
	if strings.Contains(out, id) {
		t.Fatalf("settled rumor still in active feed:\n%s", out)
	}
}

func createUser(t *testing.T, name, reputation string) string {
	t.Helper()
	out, err := execute(t, "users", "create", name, "--reputation", reputation)
	if err != nil {
		t.Fatalf("users create %s: %v", name, err)
	}
	id := strings.TrimSpace(out)
	if len(id) != 36 {
		t.Fatalf("expected a user id, got %q", out)
	}
	return id
}

func TestRumorLifecycle_VotedTrue(t *testing.T) {
	sqliteEnv(t)
	if _, err := execute(t, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	author := createUser(t, "gatekeeper", "50")
	out, err := execute(t, "rumors", "submit", "the library stays open through finals week", "--author", author)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := strings.TrimSpace(out)

	out, err = execute(t, "proofs", "submit", id, "text", "posted on the library door", "--poster", author)
	if err != nil {
		t.Fatalf("proof submit: %v", err)
	}
	proofID := strings.TrimSpace(out)

	// Eleven agreeing votes inside the momentum window lift trust past the TRUE threshold.
	var voters []string
	for i := 0; i < 11; i++ {
		voters = append(voters, createUser(t, fmt.Sprintf("voter%02d", i), "80"))
	}
	for _, v := range voters {
		out, err = execute(t, "vote", "rumor", id, "verify", "--voter", v)
		if err != nil {
			t.Fatalf("vote by %s: %v", v, err)
		}
	}
	for _, want := range []string{"vote_score:     1.0000", "momentum_score: 0.8000", "trust_score:    0.81000"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q after the last vote:\n%s", want, out)
		}
	}

	out, err = execute(t, "proofs", "list", id)
	if err != nil {
		t.Fatalf("proofs list: %v", err)
	}
	if !strings.Contains(out, proofID) {
		t.Fatalf("proof %s missing:\n%s", proofID, out)
	}

	out, err = execute(t, "settle", id)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !strings.Contains(out, "outcome:      TRUE") {
		t.Fatalf("expected a TRUE settlement:\n%s", out)
	}

	out, err = execute(t, "users", "reputation", voters[0])
	if err != nil {
		t.Fatalf("users reputation: %v", err)
	}
	if !strings.Contains(out, "CORRECT_VOTE") || !strings.Contains(out, id) {
		t.Fatalf("voter history missing the settlement reward:\n%s", out)
	}

	out, err = execute(t, "users", "reputation", author)
	if err != nil {
		t.Fatalf("author reputation: %v", err)
	}
	if !strings.Contains(out, "AUTHOR_BONUS") {
		t.Fatalf("author history missing the bonus:\n%s", out)
	}

	out, err = execute(t, "rumors", "audit", id)
	if err != nil {
		t.Fatalf("rumors audit: %v", err)
	}
	for _, want := range []string{"TRUST_SCORE_CALCULATED", "RUMOR_SETTLED", "CORRECT_VOTE", "AUTHOR_BONUS"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in audit:\n%s", want, out)
		}
	}

	if _, err := execute(t, "moderate", "vote", id, "--voter", voters[0]); err == nil {
		t.Fatalf("moderating a settled rumor should fail")
	}
}

func TestArgumentValidation(t *testing.T) {
	sqliteEnv(t)
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"settle", "not-a-uuid"}, "invalid rumor id"},
		{[]string{"rumors", "list", "--filter", "stale", "--sort", "latest"}, "unknown filter"},
		{[]string{"rumors", "list", "--filter", "all", "--sort", "loudest"}, "unknown sort"},
		{[]string{"vote", "rumor", "00000000-0000-0000-0000-000000000001", "verify", "--voter", "bob"}, "invalid voter id"},
		{[]string{"users", "create", "carol", "--reputation", "plenty"}, "invalid reputation"},
		{[]string{"users", "reputation", "carol"}, "invalid user id"},
		{[]string{"proofs", "list", "nope"}, "invalid rumor id"},
		{[]string{"rumors", "audit", "nope"}, "invalid rumor id"},
		{[]string{"moderate", "proof-vote", "00000000-0000-0000-0000-000000000001", "--voter", "bob"}, "invalid voter id"},
	}
	for _, tc := range cases {
		_, err := execute(t, tc.args...)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%v: err=%v want %q", tc.args, err, tc.want)
		}
	}
}
