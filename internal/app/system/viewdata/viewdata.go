// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"

	"github.com/docuchat/docuchat/internal/app/system/auth"
	"github.com/docuchat/docuchat/internal/app/system/flash"
)

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// One-shot toast carried across the last redirect
	FlashKind string
	FlashText string
}

// SiteName is the display name used in page chrome.
const SiteName = "DocuChat"

// NewBaseVM creates a populated BaseVM for a page, consuming any pending
// flash message.
func NewBaseVM(w http.ResponseWriter, r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    SiteName,
		Title:       title,
		BackURL:     backDefault,
		CurrentPath: r.URL.Path,
	}
	if u, ok := auth.CurrentUser(r); ok && u != nil {
		vm.IsLoggedIn = true
		vm.Role = u.Role
		vm.UserName = u.Name
	}
	if msg, ok := flash.Take(w, r); ok {
		vm.FlashKind = msg.Kind
		vm.FlashText = msg.Text
	}
	return vm
}
