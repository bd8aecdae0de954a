package viewmodel

import "github.com/gofiber/fiber/v2"

type Layout struct {
	Page          string
	FromProtected bool
	IsError       bool
	Msg           fiber.Map
	Username      string
	Premium       bool
	Lives         int
	OGViewModel   *OpenGraph
}

// OpenGraph holds the social sharing metadata for a page
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	URL         string
}
