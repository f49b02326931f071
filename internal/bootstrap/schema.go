package bootstrap

// createStudentTable never alters an existing table, whatever its shape.
const createStudentTable = `
CREATE TABLE IF NOT EXISTS public.estudiante (
    id serial PRIMARY KEY,
    nombre varchar(50),
    apellido varchar(50),
    fecha_nacimiento date,
    direccion varchar(100),
    correo_electronico varchar(100) UNIQUE,
    carrera varchar(50)
)`

const insertStudent = `
INSERT INTO public.estudiante
    (nombre, apellido, fecha_nacimiento, direccion, correo_electronico, carrera)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (correo_electronico) DO NOTHING`

const roleExists = `SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)`

const countStudents = `SELECT count(*) FROM public.estudiante`
