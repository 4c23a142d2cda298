package config

import (
	"flag"
	"os"
)

var (
	RunAddress    string
	DatabaseURI   string
	LogLevel      string
	JWTSecret     string
	AdminLogin    string
	AdminPassword string
	AuditSchedule string
)

func ParseFlags() {

	flag.StringVar(&RunAddress, "a", ":8080", "address to run server")
	flag.StringVar(&DatabaseURI, "d", "", "database uri")
	flag.StringVar(&LogLevel, "l", "info", "log level")
	flag.StringVar(&JWTSecret, "j", "", "jwt signing secret")
	flag.StringVar(&AuditSchedule, "audit", "@every 10m", "ledger reconciliation schedule (cron spec)")
	flag.Parse()

	if envRunAddr := os.Getenv("RUN_ADDRESS"); envRunAddr != "" {
		RunAddress = envRunAddr
	}
	if databaseURI := os.Getenv("DATABASE_URI"); databaseURI != "" {
		DatabaseURI = databaseURI
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		LogLevel = logLevel
	}
	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		JWTSecret = jwtSecret
	}
	if auditSchedule := os.Getenv("AUDIT_SCHEDULE"); auditSchedule != "" {
		AuditSchedule = auditSchedule
	}
	AdminLogin = os.Getenv("ADMIN_LOGIN")
	AdminPassword = os.Getenv("ADMIN_PASSWORD")
}
