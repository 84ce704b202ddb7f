// Package notify delivers leak change alerts through the EmailJS send API.
// Delivery is best effort. A failed or skipped notification never blocks
// or fails the monitoring run that produced it, and entry previews are
// masked before they leave the process.
package notify
