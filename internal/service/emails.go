package service

import (
	"fmt"
	"html"
	"time"

	"github.com/Skotchmaster/shop_api/internal/models"
	"github.com/Skotchmaster/shop_api/pkg/mail"
)

func welcomeEmail(u *models.User) mail.Message {
	return mail.Message{
		To:      u.Email,
		Subject: "Welcome to the shop",
		Text: fmt.Sprintf("Hi %s,\n\nyour account has been created. You can now sign in with %s.\n",
			u.Name, u.Email),
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>your account has been created. You can now sign in with <b>%s</b>.</p>",
			html.EscapeString(u.Name), html.EscapeString(u.Email)),
	}
}

func resetEmail(u *models.User, link string, ttl time.Duration) mail.Message {
	mins := int(ttl.Round(time.Minute) / time.Minute)
	return mail.Message{
		To:      u.Email,
		Subject: "Password reset",
		Text: fmt.Sprintf("Hi %s,\n\nuse the link below to reset your password. It expires in %d minutes.\n\n%s\n\n"+
			"If you did not ask for a reset you can ignore this email.\n", u.Name, mins, link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>use the link below to reset your password. It expires in %d minutes.</p>`+
			`<p><a href="%s">Reset password</a></p><p>If you did not ask for a reset you can ignore this email.</p>`,
			html.EscapeString(u.Name), mins, html.EscapeString(link)),
	}
}
