package axtree

import (
	"strings"

	"github.com/livefir/anchor"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Roles produced by this package. Explicit role attributes pass through as written.
const (
	RoleDesktop       anchor.Role = "desktop"
	RoleRootWebArea   anchor.Role = "rootWebArea"
	RoleStaticText    anchor.Role = "staticText"
	RoleGeneric       anchor.Role = "genericContainer"
	RoleLink          anchor.Role = "link"
	RoleButton        anchor.Role = "button"
	RoleTextField     anchor.Role = "textField"
	RoleCheckBox      anchor.Role = "checkBox"
	RoleRadioButton   anchor.Role = "radioButton"
	RoleSlider        anchor.Role = "slider"
	RoleComboBox      anchor.Role = "comboBox"
	RoleOption        anchor.Role = "option"
	RoleList          anchor.Role = "list"
	RoleListItem      anchor.Role = "listItem"
	RoleNavigation    anchor.Role = "navigation"
	RoleMain          anchor.Role = "main"
	RoleBanner        anchor.Role = "banner"
	RoleContentInfo   anchor.Role = "contentInfo"
	RoleComplementary anchor.Role = "complementary"
	RoleHeading       anchor.Role = "heading"
	RoleParagraph     anchor.Role = "paragraph"
	RoleImage         anchor.Role = "image"
	RoleForm          anchor.Role = "form"
	RoleTable         anchor.Role = "table"
	RoleRow           anchor.Role = "row"
	RoleCell          anchor.Role = "cell"
	RoleColumnHeader  anchor.Role = "columnHeader"
	RoleDialog        anchor.Role = "dialog"
	RoleRegion        anchor.Role = "region"
	RoleArticle       anchor.Role = "article"
	RoleLabelText     anchor.Role = "labelText"
	RoleIframe        anchor.Role = "iframe"
)

var tagRoles = map[atom.Atom]anchor.Role{
	atom.Button:   RoleButton,
	atom.Textarea: RoleTextField,
	atom.Select:   RoleComboBox,
	atom.Option:   RoleOption,
	atom.Ul:       RoleList,
	atom.Ol:       RoleList,
	atom.Li:       RoleListItem,
	atom.Nav:      RoleNavigation,
	atom.Main:     RoleMain,
	atom.Header:   RoleBanner,
	atom.Footer:   RoleContentInfo,
	atom.Aside:    RoleComplementary,
	atom.H1:       RoleHeading,
	atom.H2:       RoleHeading,
	atom.H3:       RoleHeading,
	atom.H4:       RoleHeading,
	atom.H5:       RoleHeading,
	atom.H6:       RoleHeading,
	atom.P:        RoleParagraph,
	atom.Img:      RoleImage,
	atom.Form:     RoleForm,
	atom.Table:    RoleTable,
	atom.Tr:       RoleRow,
	atom.Td:       RoleCell,
	atom.Th:       RoleColumnHeader,
	atom.Dialog:   RoleDialog,
	atom.Section:  RoleRegion,
	atom.Article:  RoleArticle,
	atom.Label:    RoleLabelText,
	atom.Iframe:   RoleIframe,
}

// skipped elements contribute nothing to the accessibility tree.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Noscript: true,
}

// flattened elements are replaced by their children.
var flattened = map[atom.Atom]bool{
	atom.Html: true,
	atom.Body: true,
}

// nameFromContents roles take their name from their text when unlabelled.
var nameFromContents = map[anchor.Role]bool{
	RoleButton:       true,
	RoleLink:         true,
	RoleHeading:      true,
	RoleListItem:     true,
	RoleOption:       true,
	RoleCell:         true,
	RoleColumnHeader: true,
	RoleLabelText:    true,
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// roleFor maps an element to its role. An explicit role attribute wins.
func roleFor(n *html.Node) anchor.Role {
	if explicit, ok := attr(n, "role"); ok {
		if fields := strings.Fields(explicit); len(fields) > 0 {
			return anchor.Role(fields[0])
		}
	}

	switch n.DataAtom {
	case atom.A:
		if _, ok := attr(n, "href"); ok {
			return RoleLink
		}
		return RoleGeneric
	case atom.Input:
		return inputRole(n)
	}

	if role, ok := tagRoles[n.DataAtom]; ok {
		return role
	}
	return RoleGeneric
}

func inputRole(n *html.Node) anchor.Role {
	kind, _ := attr(n, "type")
	switch strings.ToLower(kind) {
	case "checkbox":
		return RoleCheckBox
	case "radio":
		return RoleRadioButton
	case "button", "submit", "reset", "image":
		return RoleButton
	case "range":
		return RoleSlider
	default:
		return RoleTextField
	}
}

// hidden elements are left out along with their subtree.
func hidden(n *html.Node) bool {
	if _, ok := attr(n, "hidden"); ok {
		return true
	}
	v, _ := attr(n, "aria-hidden")
	return v == "true"
}

// nameFor computes a simplified accessible name.
func nameFor(n *html.Node, role anchor.Role) string {
	for _, key := range []string{"aria-label", "alt", "title", "placeholder"} {
		if v, ok := attr(n, key); ok && strings.TrimSpace(v) != "" {
			return collapse(v)
		}
	}
	if role == RoleButton && n.DataAtom == atom.Input {
		if v, ok := attr(n, "value"); ok {
			return collapse(v)
		}
	}
	if nameFromContents[role] {
		return collapse(textContent(n))
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (skipped[c.DataAtom] || hidden(c)) {
			continue
		}
		b.WriteString(textContent(c))
	}
	return b.String()
}

// collapse trims and folds runs of whitespace into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
