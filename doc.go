// A wifi doorbell for the Raspberry Pi
//
// Features
//
// - Button press plays a ring and opens a video meeting on the attached screen
//
// - Email notification with links to join the meeting and unlock the door
//
// - Door strike relay driven over http (GET /unlock)
//
// - Optional mqtt events and commands (ring, hangup, unlock)
//
// Processes
//
// - doorbell run doorbell: watches the button pin
//
// - doorbell run lock: serves the unlock endpoint
//
// Both read ~/.config/doorbell/doorbell.yaml, overridden by DOORBELL_*
// environment variables.
package doorbell
