// Package logger expone un logger zap único para el proceso y un logger
// "scoped" por request que viaja en el context.Context.
//
// Inicialización (una vez en main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "credgate"})
//	defer logger.Sync()
//
// En handlers y services:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Login"))
//	log.Info("login ok", logger.UserID(id))
//
// Nunca se loguean contraseñas ni tokens en claro.
package logger
