// Package domain defines campaign card layouts: the stat configuration, badge
// placement and color theme shared by every character card of a campaign.
package domain
