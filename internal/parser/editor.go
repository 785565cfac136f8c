package parser

import (
	"path"
	"strings"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
)

var languages = map[string]string{
	"rs":    "Rust",
	"py":    "Python",
	"js":    "JavaScript",
	"ts":    "TypeScript",
	"jsx":   "React",
	"tsx":   "React TypeScript",
	"go":    "Go",
	"java":  "Java",
	"cpp":   "C++",
	"cc":    "C++",
	"cxx":   "C++",
	"c":     "C",
	"h":     "Header",
	"hpp":   "Header",
	"sh":    "Shell",
	"bash":  "Shell",
	"md":    "Markdown",
	"toml":  "TOML",
	"yaml":  "YAML",
	"yml":   "YAML",
	"json":  "JSON",
	"xml":   "XML",
	"html":  "HTML",
	"css":   "CSS",
	"scss":  "SCSS",
	"sass":  "SCSS",
	"sql":   "SQL",
	"php":   "PHP",
	"rb":    "Ruby",
	"swift": "Swift",
	"kt":    "Kotlin",
	"kts":   "Kotlin",
	"vim":   "VimScript",
	"lua":   "Lua",
}

// DetectLanguage maps a filename's extension to a language name, or "".
func DetectLanguage(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return languages[strings.ToLower(filename[i+1:])]
}

// modifiedMarker prefixes titles of unsaved files in several editors.
const modifiedMarker = "● "

// parseEditor handles "filename (filepath) - Editor", "dir/filename - Editor"
// and "filename - project - Editor".
func (p *Parser) parseEditor(title string, d *models.ParsedData) {
	title = strings.TrimPrefix(strings.TrimSpace(title), modifiedMarker)

	if open := strings.IndexByte(title, '('); open >= 0 {
		filename := strings.TrimSpace(title[:open])
		end := strings.IndexByte(title[open:], ')')
		if end < 0 {
			d.EditorFilename = models.String(filename)
			return
		}
		p.setFile(filename, d)
		filepath := strings.TrimSpace(title[open+1 : open+end])
		d.EditorFilepath = models.String(filepath)
		d.EditorProjectPath = models.String(p.ProjectName(filepath))
		return
	}

	parts := strings.Split(title, " - ")
	if len(parts) < 2 {
		return
	}

	full := strings.TrimSpace(parts[0])
	if slash := strings.LastIndexByte(full, '/'); slash >= 0 {
		dir := p.ExpandTilde(full[:slash])
		p.setFile(full[slash+1:], d)
		d.EditorFilepath = models.String(dir)
		d.EditorProjectPath = models.String(p.ProjectName(dir))
		return
	}

	// "main.go - project - Visual Studio Code"
	if len(parts) >= 3 && path.Ext(full) != "" {
		project := strings.TrimSpace(parts[len(parts)-2])
		p.setFile(full, d)
		d.IDEFileOpen = models.String(full)
		d.IDEProjectName = models.String(project)
		d.IDEWorkspace = models.String(project)
		d.EditorProjectPath = models.String(project)
	}
}

func (p *Parser) setFile(filename string, d *models.ParsedData) {
	d.EditorFilename = models.String(filename)
	d.EditorLanguage = models.String(DetectLanguage(filename))
}

const fileScheme = "file://"

// parseFileManager records the title as a directory when it is a path.
func (p *Parser) parseFileManager(title string, d *models.ParsedData) {
	title = strings.TrimSpace(title)
	if i := strings.Index(title, fileScheme); i >= 0 {
		title = title[i+len(fileScheme):]
	} else if !strings.HasPrefix(title, "/") {
		return
	}
	p.setDirectory(title, d)
}
