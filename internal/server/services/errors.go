// Package services contains server-side business logic: accounts and
// sessions (UserService) and owner-scoped conversations (ConversationService).
package services

import (
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/common"
)

// Validation failures. All of them match common.ErrorValidation.
var (
	ErrMissingCredentials = fmt.Errorf("%w: username and password are required", common.ErrorValidation)
	ErrEmptyName          = fmt.Errorf("%w: conversation name is required", common.ErrorValidation)
	ErrEmptyText          = fmt.Errorf("%w: message text is required", common.ErrorValidation)
)
