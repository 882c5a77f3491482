package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/penwyp/go-ssp-overtime/internal/data/extractor"
	"github.com/penwyp/go-ssp-overtime/internal/util"
)

// Login form inputs.
const (
	fieldAccount  = "ctl00$lblAccount"
	fieldPassword = "ctl00$lblPassWord"
	fieldSubmit   = "ctl00$Submit"
	submitLabel   = "送出"

	// logoutMarker only appears on pages rendered for a signed-in user.
	logoutMarker = "登出"
)

var ErrLoginFailed = errors.New("login failed, check account and password")

// Login performs the form handshake: read the login page token, post the
// credentials with it, and check the landing page.
func (c *Client) Login(ctx context.Context, username, password string) error {
	c.logger.Info("connecting to login page", util.F("url", c.resolve(LoginPath)))
	doc, err := c.Get(ctx, LoginPath)
	if err != nil {
		return fmt.Errorf("load login page: %w", err)
	}

	token, err := extractor.Token(doc)
	if err != nil {
		return fmt.Errorf("login page: %w", err)
	}
	form, err := token.Form()
	if err != nil {
		return err
	}
	form.Set(fieldAccount, username)
	form.Set(fieldPassword, password)
	form.Set(fieldSubmit, submitLabel)

	page, err := c.Fetch(ctx, http.MethodPost, LoginPath, form)
	if err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	if !loggedIn(page) {
		c.logger.Warn("login rejected", util.F("landing", page.URL.Path))
		return ErrLoginFailed
	}
	c.logger.Info("login succeeded", util.F("user", username))
	return nil
}

func loggedIn(page *Page) bool {
	return strings.Contains(page.URL.String(), strings.TrimPrefix(AttendancePath, "/")) ||
		strings.Contains(page.Body, logoutMarker)
}
