// Package models lists the hardware models the adapters understand: their
// point names, event identifiers, commands and branch counts.
//
// These are the values a vendor SDK would publish as constants. Both the
// simulator and the adapters read them from here so the two stay in step.
package models
