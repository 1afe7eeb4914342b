package config

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fadilmartias/scandid/internal/apperr"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

//go:embed jobs.yaml
var defaultJobs []byte

// Job is a static job description a submission is scored against.
type Job struct {
	Role        string `koanf:"role" json:"role"`
	Title       string `koanf:"title" json:"title"`
	Company     string `koanf:"company" json:"company"`
	Location    string `koanf:"location" json:"location"`
	Posted      string `koanf:"posted" json:"posted"`
	Type        string `koanf:"type" json:"type"`
	Description string `koanf:"description" json:"description"`
}

// JobCatalog is the read-only set of job descriptions keyed by role.
type JobCatalog struct {
	jobs map[string]Job
}

// rolePattern keeps roles usable as file names and URL segments.
var rolePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,99}$`)

// bytesProvider feeds an in-memory YAML document to koanf.
type bytesProvider []byte

func (b bytesProvider) ReadBytes() ([]byte, error) { return b, nil }

func (b bytesProvider) Read() (map[string]any, error) {
	return nil, fmt.Errorf("bytes provider does not support Read()")
}

// LoadJobCatalog reads the catalogue from path, or the built-in catalogue
// when path is empty.
func LoadJobCatalog(path string) (*JobCatalog, error) {
	const op = "config.load_jobs"

	k := koanf.New(".")
	var provider koanf.Provider = bytesProvider(defaultJobs)
	if path = strings.TrimSpace(path); path != "" {
		provider = file.Provider(path)
	}
	if err := k.Load(provider, yaml.Parser()); err != nil {
		return nil, apperr.Wrap(op, apperr.ErrConfig, fmt.Errorf("load job catalogue: %w", err))
	}

	var jobs []Job
	if err := k.Unmarshal("jobs", &jobs); err != nil {
		return nil, apperr.Wrap(op, apperr.ErrConfig, fmt.Errorf("decode job catalogue: %w", err))
	}
	return NewJobCatalog(jobs...)
}

// NewJobCatalog builds a catalogue, rejecting blank or duplicate roles.
func NewJobCatalog(jobs ...Job) (*JobCatalog, error) {
	const op = "config.new_job_catalog"

	if len(jobs) == 0 {
		return nil, apperr.Errorf(op, apperr.ErrConfig, "job catalogue is empty")
	}

	c := &JobCatalog{jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		role := NormalizeRole(j.Role)
		if role == "" {
			return nil, apperr.Errorf(op, apperr.ErrConfig, "job %q has no role", j.Title)
		}
		if !rolePattern.MatchString(role) {
			return nil, apperr.Errorf(op, apperr.ErrConfig, "role %q may only contain letters, digits, '-' and '_'", role)
		}
		if strings.TrimSpace(j.Description) == "" {
			return nil, apperr.Errorf(op, apperr.ErrConfig, "job %q has no description", role)
		}
		if _, dup := c.jobs[role]; dup {
			return nil, apperr.Errorf(op, apperr.ErrConfig, "duplicate role %q", role)
		}
		j.Role = role
		j.Description = strings.TrimSpace(j.Description)
		c.jobs[role] = j
	}
	return c, nil
}

// Get returns the job for role.
func (c *JobCatalog) Get(role string) (Job, error) {
	j, ok := c.jobs[NormalizeRole(role)]
	if !ok {
		return Job{}, apperr.Errorf("config.get_job", apperr.ErrNotFound, "role %q", role)
	}
	return j, nil
}

// List returns all jobs ordered by role.
func (c *JobCatalog) List() []Job {
	out := make([]Job, 0, len(c.jobs))
	for _, j := range c.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Role < out[k].Role })
	return out
}

// NormalizeRole lower-cases and trims a role identifier.
func NormalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
