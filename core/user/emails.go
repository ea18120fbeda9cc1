package user

import (
	"fmt"
	"net/mail"

	"github.com/shulehub/shule/core"
)

func verificationEmail(email, otp string) *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Address: email}},
		Subject: "Email Verification for School Management System",
		TextContent: fmt.Sprintf(
			"Your verification code is: %s. This code will expire in 1 hour.", otp),
		HTMLContent: fmt.Sprintf(
			"<html><body>"+
				"<h1>Email Verification</h1>"+
				"<p>Thank you for registering with the School Management System.</p>"+
				"<p>Your verification code is: <strong>%s</strong></p>"+
				"<p>This code will expire in 1 hour.</p>"+
				"<p>If you did not request this verification, please ignore this email.</p>"+
				"</body></html>", otp),
	}
}

func passwordResetEmail(email, otp string) *core.EmailMessage {
	return &core.EmailMessage{
		To:      []mail.Address{{Address: email}},
		Subject: "Password Reset for School Management System",
		TextContent: fmt.Sprintf(
			"Your password reset code is: %s. This code will expire in 30 minutes.", otp),
		HTMLContent: fmt.Sprintf(
			"<html><body>"+
				"<h1>Password Reset</h1>"+
				"<p>You have requested to reset your password for the School Management System.</p>"+
				"<p>Your password reset code is: <strong>%s</strong></p>"+
				"<p>This code will expire in 30 minutes.</p>"+
				"<p>If you did not request this password reset, please ignore this email.</p>"+
				"</body></html>", otp),
	}
}
