package logger

// Component-specific logger functions

// Store returns a logger for storage operations
func Store() Logger {
	return WithField("component", "store")
}

// Media returns a logger for media store operations
func Media() Logger {
	return WithField("component", "media")
}

// Mail returns a logger for email operations
func Mail() Logger {
	return WithField("component", "mail")
}

// Migration returns a logger for migration operations
func Migration() Logger {
	return WithField("component", "migration")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}
