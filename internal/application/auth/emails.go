package auth

import (
	"fmt"
	"net/url"

	"github.com/blockprotocol/hub-api/internal/domain"
)

const (
	verifyEmailSubject   = "Verify your Block Protocol email address"
	loginCodeSubject     = "Your Block Protocol login code"
	linkWordpressSubject = "Connect your WordPress site to Block Protocol"
)

func (s *service) magicLink(path string, c *domain.VerificationCode) string {
	q := url.Values{}
	q.Set("userId", c.UserID)
	q.Set("verificationCodeId", c.CodeID)
	q.Set("code", c.Code)
	return s.frontendURL + path + "?" + q.Encode()
}

func (s *service) verifyEmailBody(u *domain.User, c *domain.VerificationCode) string {
	return fmt.Sprintf(
		"Welcome to Block Protocol!\n\nYour verification code is: %s\n\nOr open this link to verify %s:\n%s\n\nThe code expires in one hour.\n",
		c.Code, u.Email, s.magicLink("/signup", c),
	)
}

func (s *service) loginCodeBody(_ *domain.User, c *domain.VerificationCode) string {
	return fmt.Sprintf(
		"Your Block Protocol login code is: %s\n\nOr open this link to log in:\n%s\n\nThe code expires in one hour. If you did not request it you can ignore this email.\n",
		c.Code, s.magicLink("/login", c),
	)
}

func (s *service) linkWordpressBody(_ *domain.User, c *domain.VerificationCode) string {
	instance := ""
	if c.WordpressInstanceURL != nil {
		instance = *c.WordpressInstanceURL
	}
	return fmt.Sprintf(
		"Someone asked to connect the WordPress site %s to this Block Protocol account.\n\nYour verification code is: %s\n\nOr open this link:\n%s\n",
		instance, c.Code, s.magicLink("/wordpress", c),
	)
}
