// Package email entrega las notificaciones del ciclo de credenciales.
//
//	AuthService ──► Notifier (MailNotifier | LogNotifier)
//	                   │
//	                   ├── Templates (embebidos, pisables por directorio)
//	                   └── Sender (SMTPSender, go-mail)
//
// El reset de password se envía en línea (es crítico). Verificación y
// bienvenida pasan por Dispatcher: pool acotado, timeout por envío y
// contexto desacoplado del request.
package email
