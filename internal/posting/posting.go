// Package posting loads the job posting an interview is generated for.
package posting

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rbright/candor/internal/interview"
)

// Load reads a posting from path. The format follows the file extension:
// .yaml/.yml, .pdf, .docx, or plain text (.txt, .md).
func Load(path string) (interview.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return interview.Job{}, fmt.Errorf("read job posting %q: %w", path, err)
	}
	job, err := Parse(filepath.Base(path), data)
	if err != nil {
		return interview.Job{}, fmt.Errorf("parse job posting %q: %w", path, err)
	}
	return job, nil
}

// Parse decodes a posting named name from data.
func Parse(name string, data []byte) (interview.Job, error) {
	var (
		job interview.Job
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".yaml", ".yml":
		job, err = parseYAML(data)
	case ".pdf":
		var text string
		text, err = extractPDFText(bytes.NewReader(data))
		job = fromText(text)
	case ".docx":
		var text string
		text, err = extractDocxText(data)
		job = fromText(text)
	case ".txt", ".md", "":
		job = fromText(string(data))
	default:
		return interview.Job{}, fmt.Errorf("unsupported job posting format %q", ext)
	}
	if err != nil {
		return interview.Job{}, err
	}

	job.Title = strings.TrimSpace(job.Title)
	job.Description = strings.TrimSpace(job.Description)
	if job.Title == "" {
		return interview.Job{}, fmt.Errorf("job posting has no title")
	}
	if job.Description == "" {
		job.Description = job.Title
	}
	return job, nil
}

type yamlPosting struct {
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Requirements []string `yaml:"requirements"`
}

func parseYAML(data []byte) (interview.Job, error) {
	var posting yamlPosting
	if err := yaml.Unmarshal(data, &posting); err != nil {
		return interview.Job{}, fmt.Errorf("decode yaml: %w", err)
	}
	description := strings.TrimSpace(posting.Description)
	if len(posting.Requirements) > 0 {
		var b strings.Builder
		b.WriteString(description)
		b.WriteString("\n\nRequirements:")
		for _, req := range posting.Requirements {
			if req = strings.TrimSpace(req); req != "" {
				b.WriteString("\n- ")
				b.WriteString(req)
			}
		}
		description = b.String()
	}
	return interview.Job{Title: posting.Title, Description: description}, nil
}

// fromText treats the first non-empty line as the title and the rest as the description.
func fromText(text string) interview.Job {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		title := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if title == "" {
			continue
		}
		return interview.Job{
			Title:       title,
			Description: strings.Join(lines[i+1:], "\n"),
		}
	}
	return interview.Job{}
}
