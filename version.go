package pyrox

// Version is the pyrox-client release version.
const Version = "0.0.12"
