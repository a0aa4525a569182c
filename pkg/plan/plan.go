package plan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vitorcapdeville/financas/pkg/models"
)

type YNABConfig struct {
	BudgetID  string `yaml:"budget_id"`
	AccountID string `yaml:"account_id"`
	TokenEnv  string `yaml:"token_env"`
}

// Plan lists the exports to import in one run, the rules to make sure exist
// before importing and, optionally, the YNAB account to push results to.
type Plan struct {
	UserID int64               `yaml:"user_id"`
	YNAB   *YNABConfig         `yaml:"ynab,omitempty"`
	Files  []File              `yaml:"files"`
	Rules  []models.RuleParams `yaml:"rules"`
}

type File struct {
	Path        string `yaml:"file"`
	PasswordEnv string `yaml:"password_env,omitempty"`
}

// Password reads the password from the configured environment variable.
func (f File) Password() string {
	if f.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(f.PasswordEnv)
}

// Token reads the YNAB token from the configured environment variable.
func (c *YNABConfig) Token() string {
	if c == nil || c.TokenEnv == "" {
		return ""
	}
	return os.Getenv(c.TokenEnv)
}

// Load reads a plan. Relative file paths are resolved against the plan's
// directory.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(p.Files) == 0 {
		return nil, fmt.Errorf("plan has no files")
	}
	base := filepath.Dir(path)
	for i, f := range p.Files {
		if f.Path == "" {
			return nil, fmt.Errorf("plan file #%d has no path", i+1)
		}
		if !filepath.IsAbs(f.Path) {
			p.Files[i].Path = filepath.Join(base, f.Path)
		}
	}
	for _, r := range p.Rules {
		if _, err := models.NewRule(r); err != nil {
			return nil, fmt.Errorf("plan rule %q: %w", r.Name, err)
		}
	}
	if p.YNAB != nil && (p.YNAB.BudgetID == "" || p.YNAB.AccountID == "") {
		return nil, fmt.Errorf("plan ynab section needs budget_id and account_id")
	}
	return &p, nil
}

func (p *Plan) Print() {
	p.Fprint(os.Stdout)
}

func (p *Plan) Fprint(w io.Writer) {
	if p.YNAB != nil {
		fmt.Fprintf(w, "YNAB budget: %s account: %s\n", p.YNAB.BudgetID, p.YNAB.AccountID)
	}
	for i, f := range p.Files {
		fmt.Fprintf(w, "[%d] file=%s\n", i+1, f.Path)
	}
	for _, r := range p.Rules {
		fmt.Fprintf(w, "rule %s: %s %s=%q -> %s\n", r.Name, r.Action, r.Criterion, r.CriterionValue, r.ActionValue)
	}
}
