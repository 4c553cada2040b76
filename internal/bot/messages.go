package bot

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xaenox/time-bot/internal/classifier"
	"github.com/xaenox/time-bot/internal/models"
	"github.com/xaenox/time-bot/internal/pipeline"
)

const (
	startText = "Привет! Отправь описание активности, например '30 минут спортзал'."
	helpText  = "Напиши, чем занимался и сколько времени ушло. Я превращу сообщение в заметку Obsidian.\n\n" +
		"/add - записать приём пищи\n" +
		"/cancel - отменить текущий диалог\n" +
		"/stats - статистика за сегодня\n" +
		"/tasks - открытые задачи"
	foodModeText       = "Режим отслеживания питания активен. Выберите действие на клавиатуре ниже."
	unknownCommandText = "Неизвестная команда. Используйте /help, чтобы увидеть список команд."
	readFailedText     = "Не удалось прочитать заметки. Попробуйте позже."
	genericErrorText   = "Произошла ошибка при обработке сообщения."
)

// maxMessageLength is the Telegram limit for one text message, in characters.
const maxMessageLength = 4096

// resultMessage describes a saved note to the user.
func resultMessage(res pipeline.Result) string {
	switch r := res.(type) {
	case pipeline.TimeLogResult:
		e := r.Note.Entry
		subtag := string(e.Subtag)
		if subtag == "" {
			subtag = "-"
		}
		return fmt.Sprintf("Запись создана\n%d мин, maintag=%s, subtag=%s\nФайл: %s",
			e.Minutes, e.Maintag, subtag, r.Note.FileName)

	case pipeline.TaskResult:
		e := r.Note.Entry
		due := "не указано"
		if e.Due != nil {
			due = e.Due.String()
		}
		projects := make([]string, len(e.Project))
		for i, p := range e.Project {
			projects[i] = string(p)
		}
		return fmt.Sprintf("Задача создана\n%s\nСрок: %s\nПроект: %s\nФайл: %s",
			e.Title, due, strings.Join(projects, ", "), r.Note.FileName)
	}
	return "Заметка создана."
}

// errorMessage maps a pipeline failure to user-facing text.
func errorMessage(err error) string {
	var (
		parseErr       *classifier.ParseError
		unsupportedErr *pipeline.UnsupportedIntentError
	)
	switch {
	case errors.Is(err, pipeline.ErrEmptyMessage):
		return "Сообщение пустое. Опиши активность и длительность."
	case errors.As(err, &unsupportedErr):
		if unsupportedErr.Intent == models.IntentJournal {
			return "Записи в дневник пока не поддерживаются."
		}
		return "Эта категория сообщений пока не поддерживается."
	case errors.As(err, &parseErr):
		return "Не смог разобрать сообщение. Уточни длительность и что делал."
	}
	return genericErrorText
}

// splitText cuts text into pieces Telegram accepts, preferring line breaks.
func splitText(text string) []string {
	var parts []string
	for utf8.RuneCountInString(text) > maxMessageLength {
		runes := []rune(text)
		cut := maxMessageLength
		if i := strings.LastIndex(string(runes[:cut]), "\n"); i > 0 {
			cut = utf8.RuneCountInString(string(runes[:cut])[:i])
		}
		parts = append(parts, strings.TrimRight(string(runes[:cut]), "\n"))
		text = strings.TrimLeft(string(runes[cut:]), "\n")
	}
	return append(parts, text)
}
