package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

type message struct {
	subject *texttemplate.Template
	body    *template.Template
}

func newMessage(name, subject, body string) message {
	return message{
		subject: texttemplate.Must(texttemplate.New(name).Parse(subject)),
		body:    template.Must(template.New(name).Parse(body)),
	}
}

var messages = map[Template]message{
	TemplateTeamInvite: newMessage("team_invite",
		`You've been invited to join {{.team_name}}`,
		`<html><body>
<h2>Team Invitation</h2>
<p>Hi,</p>
<p>You have been added to the team <strong>{{.team_name}}</strong>.</p>
<p><a href="{{.link}}">Open the invitation to confirm your details</a></p>
</body></html>`),
	TemplateMemberJoined: newMessage("member_joined",
		`{{.member_name}} joined {{.team_name}}`,
		`<html><body>
<p><strong>{{.member_name}}</strong> confirmed their details and joined <strong>{{.team_name}}</strong>.</p>
<p><a href="{{.link}}">View your team</a></p>
</body></html>`),
	TemplateMergeInviteReceived: newMessage("merge_invite_received",
		`{{.sender_team_name}} wants to merge with {{.team_name}}`,
		`<html><body>
<h2>Merge Invitation</h2>
<p><strong>{{.sender_team_name}}</strong> has invited <strong>{{.team_name}}</strong> to merge.</p>
{{if .message}}<blockquote>{{.message}}</blockquote>{{end}}
<p><a href="{{.link}}">Review the invitation</a></p>
</body></html>`),
	TemplateMergeInviteRejected: newMessage("merge_invite_rejected",
		`{{.receiver_team_name}} declined your merge invitation`,
		`<html><body>
<p><strong>{{.receiver_team_name}}</strong> declined the merge invitation from <strong>{{.team_name}}</strong>.</p>
</body></html>`),
	TemplateMergeInviteCancelled: newMessage("merge_invite_cancelled",
		`{{.sender_team_name}} withdrew their merge invitation`,
		`<html><body>
<p><strong>{{.sender_team_name}}</strong> withdrew the merge invitation sent to <strong>{{.team_name}}</strong>.</p>
</body></html>`),
	TemplateMergeCompleted: newMessage("merge_completed",
		`Your team is now {{.team_name}}`,
		`<html><body>
<h2>Teams Merged</h2>
<p><strong>{{.sender_team_name}}</strong> merged into <strong>{{.team_name}}</strong>. You are now a member of <strong>{{.team_name}}</strong>.</p>
<p><a href="{{.link}}">View your team</a></p>
</body></html>`),
}

// render produces the subject and HTML body for n. The data key "path" is
// resolved against baseURL into "link".
func render(n Notification, baseURL string) (string, string, error) {
	msg, ok := messages[n.Template]
	if !ok {
		return "", "", fmt.Errorf("unknown template %q", n.Template)
	}

	data := make(map[string]string, len(n.Data)+1)
	for k, v := range n.Data {
		data[k] = v
	}
	data["link"] = strings.TrimRight(baseURL, "/") + data["path"]

	var subject, body bytes.Buffer
	if err := msg.subject.Execute(&subject, data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := msg.body.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return subject.String(), body.String(), nil
}
