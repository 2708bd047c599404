// Package booking превращает сырые данные из WebApp в нормализованную заявку.
//
// Форма отправляет JSON, набор ключей в котором менялся от ревизии к ревизии.
// Все приведения типов и значения по умолчанию собраны здесь, чтобы хранилище
// получало уже заполненную запись.
package booking

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"telegram_booking_bot/internal/storage/models"
)

// Placeholder подставляется вместо пустых имен мастера и услуги
const Placeholder = "—"

// Payload представляет разобранный JSON-объект из WebApp
type Payload map[string]interface{}

// Sender описывает автора заявки в Telegram
type Sender struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// FullName возвращает имя и фамилию через пробел
func (s Sender) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Label возвращает @username или полное имя
func (s Sender) Label() string {
	if s.Username != "" {
		return "@" + s.Username
	}
	return s.FullName()
}

// Request представляет нормализованную заявку на запись
type Request struct {
	UserID      int64                `json:"user_id"`
	UserName    string               `json:"user_name"`
	UserPhone   string               `json:"user_phone"`
	Comment     string               `json:"comment"`
	MasterID    int64                `json:"master_id" validate:"gt=0"`
	MasterName  string               `json:"master_name"`
	Date        string               `json:"date" validate:"required"`
	Time        string               `json:"time" validate:"required"`
	Services    []models.ServiceItem `json:"services"`
	TotalPrice  int                  `json:"total_price"`
	DurationMin int                  `json:"duration_min"`
}

// Варианты ключей из разных ревизий формы, в порядке приоритета
var (
	keysName     = []string{"name", "client_name", "user_name"}
	keysPhone    = []string{"phone", "client_phone", "user_phone"}
	keysComment  = []string{"comment", "note"}
	keysMasterID = []string{"master_id", "masterId", "master"}
	keysMaster   = []string{"master_name", "masterName"}
	keysDate     = []string{"date", "day"}
	keysTime     = []string{"time", "slot"}
	keysServices = []string{"services", "items"}
	keysTotal    = []string{"total_price", "total", "sum"}
	keysDuration = []string{"duration_min", "duration", "total_duration"}
)

// ParsePayload разбирает JSON из WebApp. Некорректный JSON или не-объект
// дают пустой Payload, а не ошибку.
func ParsePayload(raw string) Payload {
	if strings.TrimSpace(raw) == "" {
		return Payload{}
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return Payload{}
	}
	// После объекта допустимы только пробелы
	if _, err := dec.Token(); err != io.EOF {
		return Payload{}
	}

	obj, ok := data.(map[string]interface{})
	if !ok {
		return Payload{}
	}
	return Payload(obj)
}

// lookup возвращает первое присутствующее значение из списка ключей
func (p Payload) lookup(keys []string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (p Payload) str(keys []string) string {
	v, _ := p.lookup(keys)
	return CleanString(v)
}

// Normalize строит заявку из Payload и данных отправителя
func Normalize(p Payload, from Sender) Request {
	req := Request{
		UserID:     from.ID,
		UserName:   p.str(keysName),
		UserPhone:  p.str(keysPhone),
		Comment:    p.str(keysComment),
		MasterName: p.str(keysMaster),
		Date:       p.str(keysDate),
		Time:       p.str(keysTime),
	}

	if req.UserName == "" {
		req.UserName = from.FullName()
	}
	if req.MasterName == "" {
		req.MasterName = Placeholder
	}

	masterID, _ := p.lookup(keysMasterID)
	req.MasterID = int64(SafeInt(masterID, 0))

	rawServices, _ := p.lookup(keysServices)
	var calcTotal, calcDuration int
	req.Services, calcTotal, calcDuration = normalizeServices(rawServices)

	total, _ := p.lookup(keysTotal)
	req.TotalPrice = SafeInt(total, calcTotal)

	duration, _ := p.lookup(keysDuration)
	req.DurationMin = SafeInt(duration, calcDuration)

	return req
}

// normalizeServices приводит список услуг и считает суммы.
// Отрицательные цена и длительность в сумму не входят.
func normalizeServices(raw interface{}) ([]models.ServiceItem, int, int) {
	list, ok := raw.([]interface{})
	if !ok {
		return nil, 0, 0
	}

	var items []models.ServiceItem
	var total, duration int
	for _, entry := range list {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}

		item := models.ServiceItem{
			Name:     CleanString(obj["name"]),
			Price:    SafeInt(obj["price"], 0),
			Duration: SafeInt(obj["duration"], 0),
		}
		if item.Name == "" {
			item.Name = Placeholder
		}

		total += max(0, item.Price)
		duration += max(0, item.Duration)
		items = append(items, item)
	}

	return items, total, duration
}

// ServicesJSON сериализует услуги заявки, пустой список дает "[]"
func (r *Request) ServicesJSON() string {
	if len(r.Services) == 0 {
		return models.EmptyServicesJSON
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.Services); err != nil {
		return models.EmptyServicesJSON
	}
	return strings.TrimRight(buf.String(), "\n")
}

// ToAppointment превращает заявку в запись со статусом pending
func (r *Request) ToAppointment() *models.Appointment {
	return &models.Appointment{
		UserID:       r.UserID,
		UserName:     r.UserName,
		UserPhone:    r.UserPhone,
		MasterID:     r.MasterID,
		MasterName:   r.MasterName,
		Date:         r.Date,
		Time:         r.Time,
		DurationMin:  r.DurationMin,
		TotalPrice:   r.TotalPrice,
		ServicesJSON: r.ServicesJSON(),
		Comment:      r.Comment,
		Status:       models.StatusPending,
	}
}

// CleanString приводит значение к строке без пробелов по краям, nil дает ""
func CleanString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

// SafeInt приводит число или строку к int. nil, bool и неразбираемые
// значения дают def. Дробная часть отбрасывается.
func SafeInt(v interface{}, def int) int {
	switch n := v.(type) {
	case nil, bool:
		return def
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return truncate(n, def)
	case json.Number:
		return parseIntString(n.String(), def)
	case string:
		return parseIntString(n, def)
	default:
		return def
	}
}

func parseIntString(s string, def int) int {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return def
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return truncate(f, def)
}

// truncate отбрасывает дробную часть. float64(math.MaxInt64) округляется до 2^63,
// поэтому верхняя граница проверяется нестрого
func truncate(f float64, def int) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return def
	}
	return int(f)
}
