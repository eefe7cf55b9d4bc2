package nodeflow

// Version is the driver release.
const Version = "0.1.0"
