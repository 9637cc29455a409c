package service

import (
	"fmt"
	"strings"

	"github.com/prperemyshlev/outreach-service/internal/domain"
	"github.com/prperemyshlev/outreach-service/internal/utils"
)

// resume text beyond this is cut from prompts
const promptResumeRunes = 6000

func searchQueryPrompt(p *domain.Profile, jobDescription string) string {
	var b strings.Builder
	b.WriteString("You help a job seeker find people to contact about a role.\n")
	b.WriteString("Write ONE short people-search query (job titles, skills, companies or locations) ")
	b.WriteString("that finds professionals who work on or hire for the role below and share background with the sender.\n")
	b.WriteString("Reply with the query only, no explanation and no quotes.\n\n")
	fmt.Fprintf(&b, "Job description:\n%s\n\n", strings.TrimSpace(jobDescription))
	writeSender(&b, p)
	return b.String()
}

func emailBodyPrompt(p *domain.Profile, c *domain.Candidate, jobDescription string) string {
	var b strings.Builder
	b.WriteString("Write a short, warm, professional cold email from the sender to the recipient ")
	b.WriteString("asking for a brief chat about the role below. Mention one concrete overlap between ")
	b.WriteString("the recipient's background and the sender's. Under 150 words. Plain text only, ")
	b.WriteString("no subject line, no placeholders in brackets. Sign with the sender's name if the resume has one.\n\n")
	fmt.Fprintf(&b, "Job description:\n%s\n\n", strings.TrimSpace(jobDescription))

	b.WriteString("Recipient:\n")
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	writeField(&b, "Title", c.Title)
	writeField(&b, "Headline", c.Headline)
	writeField(&b, "Location", c.Location)
	for _, e := range c.Experience {
		line := strings.TrimSpace(e.Title + " at " + e.CompanyName)
		if e.StartDate != "" || e.EndDate != "" {
			line += fmt.Sprintf(" (%s - %s)", e.StartDate, orPresent(e.EndDate))
		}
		fmt.Fprintf(&b, "Experience: %s\n", line)
	}
	for _, e := range c.Education {
		line := e.School
		if e.Degree != "" || e.FieldOfStudy != "" {
			line += ", " + strings.TrimSpace(e.Degree+" "+e.FieldOfStudy)
		}
		fmt.Fprintf(&b, "Education: %s\n", line)
	}
	b.WriteString("\n")

	writeSender(&b, p)
	return b.String()
}

func subjectPrompt(body string, maxRunes int) string {
	return fmt.Sprintf("Write a subject line of at most %d characters for this email. "+
		"Reply with the subject only, no quotes and no \"Subject:\" prefix.\n\nEmail:\n%s\n", maxRunes, body)
}

func writeSender(b *strings.Builder, p *domain.Profile) {
	b.WriteString("Sender resume:\n")
	b.WriteString(utils.Truncate(strings.TrimSpace(p.ResumeText), promptResumeRunes))
	b.WriteString("\n")
	if d := strings.TrimSpace(p.AdditionalDetails); d != "" {
		fmt.Fprintf(b, "\nSender details:\n%s\n", d)
	}
}

func writeField(b *strings.Builder, name, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", name, value)
	}
}

func orPresent(end string) string {
	if end == "" {
		return "present"
	}
	return end
}

// quote characters the model wraps answers in
const quoteChars = "\"'`“”‘’"

// cleanQuery keeps the first non-blank line of a generated query without surrounding quotes
func cleanQuery(raw string) string {
	return strings.Trim(firstLine(raw), quoteChars+" \t")
}

// cleanSubject drops a "Subject:" prefix and quotes and cuts to maxRunes
func cleanSubject(raw string, maxRunes int) string {
	s := firstLine(raw)
	if len(s) >= 8 && strings.EqualFold(s[:8], "subject:") {
		s = s[8:]
	}
	s = strings.Trim(s, quoteChars+" \t*")
	return strings.TrimSpace(utils.Truncate(s, maxRunes))
}

// cleanBody strips a leading subject line the model sometimes adds anyway
func cleanBody(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 8 && strings.EqualFold(s[:8], "subject:") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = strings.TrimSpace(s[i+1:])
		}
	}
	return s
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
