package parser

import (
	"regexp"
	"strings"

	"dealintake/internal/model"
	"dealintake/internal/utils"
)

// ContactDirectory resolves a normalized 10-digit mobile number to a known contact.
type ContactDirectory interface {
	Lookup(phone string) (model.ContactInfo, bool)
}

// StaticDirectory is an immutable in-memory ContactDirectory. Lookups try an
// exact match first, then a suffix match in either direction.
type StaticDirectory struct {
	exact   map[string]model.ContactInfo
	entries []directoryEntry
}

type directoryEntry struct {
	digits string
	info   model.ContactInfo
}

// NewStaticDirectory indexes contacts by their normalized mobile number.
func NewStaticDirectory(contacts []model.ContactInfo) *StaticDirectory {
	d := &StaticDirectory{exact: make(map[string]model.ContactInfo, len(contacts))}
	for _, c := range contacts {
		digits := NormalizePhone(utils.DigitsOnly(c.Mobile))
		if len(digits) < 7 {
			continue
		}
		if _, dup := d.exact[digits]; !dup {
			d.exact[digits] = c
		}
		d.entries = append(d.entries, directoryEntry{digits: digits, info: c})
	}
	return d
}

// Lookup implements ContactDirectory
func (d *StaticDirectory) Lookup(phone string) (model.ContactInfo, bool) {
	if d == nil || phone == "" {
		return model.ContactInfo{}, false
	}
	if c, ok := d.exact[phone]; ok {
		return c, true
	}
	for _, e := range d.entries {
		if strings.HasSuffix(e.digits, phone) || strings.HasSuffix(phone, e.digits) {
			return e.info, true
		}
	}
	return model.ContactInfo{}, false
}

// Len returns the number of indexed contacts.
func (d *StaticDirectory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

var (
	phoneToken   = regexp.MustCompile(`[+\d]+`)
	indianMobile = regexp.MustCompile(`^[6-9]\d{9}$`)
)

// NormalizePhone strips a leading +91, 91 or 0 when what remains is exactly
// ten digits.
func NormalizePhone(token string) string {
	for _, prefix := range []string{"+91", "91", "0"} {
		if strings.HasPrefix(token, prefix) && len(token)-len(prefix) == 10 {
			return token[len(prefix):]
		}
	}
	return token
}

// phoneMatch is a mobile number and the span it occupied in the scanned text.
type phoneMatch struct {
	mobile     string
	start, end int
}

// findPhones returns the distinct mobile numbers in text in order of appearance.
func findPhones(text string) []phoneMatch {
	var out []phoneMatch
	seen := make(map[string]bool)
	for _, loc := range phoneToken.FindAllStringIndex(text, -1) {
		mobile := NormalizePhone(text[loc[0]:loc[1]])
		if !indianMobile.MatchString(mobile) {
			continue
		}
		m := phoneMatch{mobile: mobile, start: loc[0], end: loc[1]}
		if seen[mobile] {
			// still consumed, just not listed twice
			m.mobile = ""
		}
		seen[mobile] = true
		out = append(out, m)
	}
	return out
}

func resolveContact(dir ContactDirectory, mobile string) model.Contact {
	if dir != nil {
		if info, ok := dir.Lookup(mobile); ok {
			name := info.Name
			if name == "" {
				name = "Unknown"
			}
			role := info.Role
			if role == "" {
				role = "Contact"
			}
			return model.Contact{Mobile: mobile, Name: name, Role: role, ID: info.ID}
		}
	}
	return model.Contact{Mobile: mobile, Name: "Unknown", Role: model.RoleNewContact, IsNew: true}
}
