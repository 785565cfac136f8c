package parser

import (
	"strconv"
	"strings"

	"github.com/adolfousier/neura-hustle-tracker-sub000/internal/models"
)

// browserSeparator sits between the page title and the browser name.
const browserSeparator = " — "

var services = []struct {
	keywords []string
	name     string
}{
	{[]string{"whatsapp"}, "WhatsApp"},
	{[]string{"facebook"}, "Facebook"},
	{[]string{"twitter", "x.com"}, "Twitter/X"},
	{[]string{"linkedin"}, "LinkedIn"},
	{[]string{"instagram"}, "Instagram"},
	{[]string{"reddit"}, "Reddit"},
	{[]string{"gmail"}, "Gmail"},
	{[]string{"outlook"}, "Outlook"},
	{[]string{"protonmail"}, "ProtonMail"},
	{[]string{"github"}, "GitHub"},
	{[]string{"gitlab"}, "GitLab"},
	{[]string{"stack overflow"}, "Stack Overflow"},
	{[]string{"localhost"}, "Localhost"},
	{[]string{"slack"}, "Slack"},
	{[]string{"teams"}, "Microsoft Teams"},
	{[]string{"notion"}, "Notion"},
	{[]string{"jira"}, "Jira"},
	{[]string{"trello"}, "Trello"},
	{[]string{"youtube"}, "YouTube"},
	{[]string{"netflix"}, "Netflix"},
}

// parseBrowser handles "(N) Page Title — Browser Name".
func parseBrowser(title string, d *models.ParsedData) {
	if start := strings.IndexByte(title, '('); start >= 0 {
		if end := strings.IndexByte(title, ')'); end > start {
			if n, err := strconv.Atoi(title[start+1 : end]); err == nil {
				d.BrowserNotificationCount = &n
			}
		}
	}

	page := title
	if i := strings.Index(title, browserSeparator); i >= 0 {
		page = title[:i]
	}
	page = strings.TrimSpace(page)
	if strings.HasPrefix(page, "(") {
		if i := strings.IndexByte(page, ')'); i >= 0 {
			page = strings.TrimSpace(page[i+1:])
		}
	}

	d.BrowserPageTitle = models.String(page)
	d.BrowserURL = models.String(DetectService(page))
}

// DetectService maps a page title to a known web service, or "".
func DetectService(title string) string {
	lower := strings.ToLower(title)
	for _, s := range services {
		for _, kw := range s.keywords {
			if strings.Contains(lower, kw) {
				return s.name
			}
		}
	}
	return ""
}
