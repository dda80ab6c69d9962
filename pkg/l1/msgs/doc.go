// Package msgs provides L1 protocol support and all message schemas.
package msgs

// L1 protocol is spoken between the DRO controller daemon and host
// tools (shell, monitor). Messages are hardware-agnostic: axes are
// indices, positions are calibrated values.
//
// Producer: DRO controller (drod)
// Consumer: drocli, dromon
