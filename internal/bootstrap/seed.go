package bootstrap

import "time"

// Student is one seed row. Email is the natural key.
type Student struct {
	FirstName string
	LastName  string
	BirthDate time.Time
	Address   string
	Email     string
	Program   string
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SeedStudents is inserted on every run; existing emails are skipped.
var SeedStudents = []Student{
	{"Ana", "López", date(2000, time.April, 10), "Calle 321, Ciudad", "ana.lopez@example.com", "Ingeniería Informática"},
	{"Carlos", "Rodríguez", date(1999, time.August, 22), "Avenida 654, Ciudad", "carlos@example.com", "Arquitectura"},
	{"Sofía", "Hernández", date(1998, time.July, 15), "Calle 987, Ciudad", "sofia@example.com", "Contabilidad"},
	{"Diego", "Gómez", date(2001, time.January, 5), "Calle 123, Ciudad", "diego@example.com", "Ingeniería Mecánica"},
	{"Laura", "Díaz", date(1999, time.March, 20), "Avenida 456, Ciudad", "laura@example.com", "Enfermería"},
	{"Pedro", "Ramírez", date(1997, time.November, 28), "Calle 789, Ciudad", "pedro@example.com", "Economía"},
	{"Isabel", "Torres", date(1996, time.June, 14), "Avenida 654, Ciudad", "isabel@example.com", "Biología"},
	{"Miguel", "Pérez", date(2002, time.September, 8), "Calle 321, Ciudad", "miguel@example.com", "Historia"},
	{"Carolina", "García", date(2000, time.February, 25), "Avenida 987, Ciudad", "carolina@example.com", "Física"},
	{"Andrés", "López", date(1998, time.May, 12), "Calle 123, Ciudad", "andres@example.com", "Matemáticas"},
	{"Vincent", "Restrepo", date(1990, time.March, 26), "Calle 20, Ciudad", "vincent@example.com", "Ingeniería Informática"},
	{"Elena", "Gómez", date(1997, time.September, 18), "Avenida 1234, Ciudad", "elena@example.com", "Ingeniería Eléctrica"},
	{"Roberto", "Fernández", date(1996, time.December, 5), "Calle 5678, Ciudad", "roberto@example.com", "Ciencias de la Computación"},
	{"Fernanda", "Sánchez", date(1999, time.February, 28), "Calle 9999, Ciudad", "fernanda@example.com", "Psicología"},
	{"Julio", "Martínez", date(2001, time.May, 10), "Avenida 5555, Ciudad", "julio@example.com", "Medicina"},
	{"Patricia", "Torres", date(1998, time.August, 22), "Calle 3333, Ciudad", "patricia@example.com", "Derecho"},
	{"Raúl", "López", date(1995, time.April, 15), "Avenida 7777, Ciudad", "raul@example.com", "Arquitectura"},
	{"Natalia", "Hernández", date(2000, time.July, 20), "Calle 2222, Ciudad", "natalia@example.com", "Contabilidad"},
	{"Andrea", "Ramírez", date(1997, time.October, 12), "Calle 1111, Ciudad", "andrea@example.com", "Ingeniería Civil"},
	{"Hugo", "González", date(1996, time.March, 28), "Avenida 8888, Ciudad", "hugo@example.com", "Historia del Arte"},
	{"Silvia", "Pérez", date(2002, time.January, 8), "Calle 4444, Ciudad", "silvia@example.com", "Biomedicina"},
}
