package teacher

import (
	"fmt"
	"net/mail"

	"github.com/shulehub/shule/core"
)

func credentialsEmail(email, password, fullName, schoolName string) *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Name: fullName, Address: email}},
		Subject: "Your Teacher Account Credentials",
		TextContent: fmt.Sprintf(
			"Welcome to the School Management System\n\n"+
				"Dear %s,\n\n"+
				"Your teacher account has been created for %s.\n\n"+
				"Your login credentials:\n- Email: %s\n- Password: %s\n\n"+
				"Please log in to the School Management System using these credentials. "+
				"For security reasons, we recommend changing your password after your first login.\n\n"+
				"If you have any questions, please contact your school administrator.",
			fullName, schoolName, email, password),
		HTMLContent: fmt.Sprintf(
			"<html><body>"+
				"<h1>Welcome to the School Management System</h1>"+
				"<p>Dear %s,</p>"+
				"<p>Your teacher account has been created for <strong>%s</strong>.</p>"+
				"<p><strong>Your login credentials:</strong></p>"+
				"<ul><li><strong>Email:</strong> %s</li><li><strong>Password:</strong> %s</li></ul>"+
				"<p>Please log in to the School Management System using these credentials. "+
				"For security reasons, we recommend changing your password after your first login.</p>"+
				"<p>If you have any questions, please contact your school administrator.</p>"+
				"</body></html>",
			fullName, schoolName, email, password),
	}
}
