package config

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

func NewSlackForTest(botToken, channelID string) *Slack {
	return &Slack{
		botToken:  botToken,
		channelID: channelID,
	}
}

func NewAuthForTest(supabaseURL, jwtSecret, noAuthUser string) *Auth {
	return &Auth{
		supabaseURL: supabaseURL,
		jwtSecret:   jwtSecret,
		noAuthUser:  noAuthUser,
	}
}

func NewRepositoryForTest(backend, projectID, postgresDSN string) *Repository {
	return &Repository{
		backend:     backend,
		projectID:   projectID,
		postgresDSN: postgresDSN,
	}
}

func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

var NewLogHandler = newLogHandler
