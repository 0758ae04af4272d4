package notice

import (
	"fmt"
	"net/mail"

	"github.com/smartstudentv6/smart-student-notices/core"
)

type digestRow struct {
	Kind      string
	Subject   string
	CourseID  string
	CreatedAt string
}

type digestData struct {
	Viewer string
	Count  int
	Rows   []digestRow
}

// DigestFor renders the viewer's unread records into an email message, or nil
// when there is nothing unread.
func (svc *Service) DigestFor(viewer string, role Role, to mail.Address) (*core.EmailMessage, error) {
	count, err := svc.CountFor(viewer, role)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	notices, err := svc.ListFor(viewer, role)
	if err != nil {
		return nil, err
	}

	rows := make([]digestRow, 0, len(notices))
	for _, n := range notices {
		rows = append(rows, digestRow{
			Kind:      string(n.Kind),
			Subject:   n.Subject,
			CourseID:  n.CourseID,
			CreatedAt: n.CreatedAt.Format("Jan 2, 2006 15:04"),
		})
	}

	return &core.EmailMessage{
		To:           []mail.Address{to},
		Subject:      fmt.Sprintf("You have %d unread notifications", count),
		TemplateName: "notice_digest",
		TemplateData: digestData{Viewer: viewer, Count: count, Rows: rows},
	}, nil
}
