package cp

// Пропагатор работает по очереди событий: каждое изменение переменной
// ставится в очередь и обрабатывается правилами ниже до неподвижной точки.
// Противоречие (попытка присвоить переменной противоположное значение
// или пустой домен стоянок у судна) прерывает раунд.

func (md *Model) setOcc(i, s, t int, v Tri) bool {
	k := md.occIdx(i, s, t)
	switch md.occ[k] {
	case v:
		return true
	case Unset:
	default:
		return false
	}
	md.occ[k] = v
	r := ref{kind: kindOcc, idx: k}
	md.trail = append(md.trail, r)
	md.queue = append(md.queue, r)
	return true
}

func (md *Model) setUse(i, s int, v Tri) bool {
	k := i*md.m + s
	switch md.use[k] {
	case v:
		return true
	case Unset:
	default:
		return false
	}
	md.use[k] = v
	r := ref{kind: kindUse, idx: k}
	md.trail = append(md.trail, r)
	md.queue = append(md.queue, r)
	return true
}

func (md *Model) fail() bool {
	md.queue = md.queue[:0]
	md.head = 0
	return false
}

func (md *Model) propagate() bool {
	for md.head < len(md.queue) {
		r := md.queue[md.head]
		md.head++
		md.Propagations++

		var ok bool
		if r.kind == kindOcc {
			i, s, t := md.splitOcc(r.idx)
			if md.occ[r.idx] == True {
				ok = md.onOccupied(i, s, t)
			} else {
				ok = md.onVacant(i, s, t)
			}
		} else {
			i, s := r.idx/md.m, r.idx%md.m
			if md.use[r.idx] == True {
				ok = md.onUsed(i, s)
			} else {
				ok = md.onUnused(i, s)
			}
		}
		if !ok {
			return md.fail()
		}
	}
	md.queue = md.queue[:0]
	md.head = 0
	return true
}

// onOccupied: X[i][s][t]=1.
func (md *Model) onOccupied(i, s, t int) bool {
	// Исключительность: в слоте t стоянка s принадлежит только i.
	for k := 0; k < md.n; k++ {
		if k != i && !md.setOcc(k, s, t, False) {
			return false
		}
	}
	// Занятость подразумевает использование стоянки.
	if !md.setUse(i, s, True) {
		return false
	}
	// Следующий слот уже свободен: судно покинуло стоянку после t.
	if t+1 < md.h && md.occ[md.occIdx(i, s, t+1)] == False {
		return md.vacated(i, s, t+1)
	}
	return true
}

// onVacant: X[i][s][t]=0.
func (md *Model) onVacant(i, s, t int) bool {
	// Слот из обязательного окна недоступен: пара (i, s) не может
	// обеспечить ни занятость в момент прибытия, ни точную длительность.
	start, end := md.inst.Window(i)
	if t >= start && t < end && !md.setUse(i, s, False) {
		return false
	}
	// Переход 1 -> 0 между t-1 и t: возврат на стоянку запрещён.
	if t > 0 && md.occ[md.occIdx(i, s, t-1)] == True {
		return md.vacated(i, s, t)
	}
	return true
}

// vacated запрещает судну i стоянку s во всех слотах после t,
// где t — первый свободный слот после занятого.
func (md *Model) vacated(i, s, t int) bool {
	for u := t + 1; u < md.h; u++ {
		if !md.setOcc(i, s, u, False) {
			return false
		}
	}
	return true
}

// onUsed: Y[i][s]=1.
func (md *Model) onUsed(i, s int) bool {
	// Не более одной стоянки за весь горизонт.
	for o := 0; o < md.m; o++ {
		if o != s && !md.setUse(i, o, False) {
			return false
		}
	}
	// Занятость с момента прибытия ровно на Duration слотов подряд,
	// после окна — освобождение без возврата.
	start, end := md.inst.Window(i)
	if end > md.h {
		return false
	}
	for t := start; t < end; t++ {
		if !md.setOcc(i, s, t, True) {
			return false
		}
	}
	for t := end; t < md.h; t++ {
		if !md.setOcc(i, s, t, False) {
			return false
		}
	}
	return true
}

// onUnused: Y[i][s]=0.
func (md *Model) onUnused(i, s int) bool {
	for t := 0; t < md.h; t++ {
		if !md.setOcc(i, s, t, False) {
			return false
		}
	}
	if md.inst.Aircraft[i].Duration == 0 {
		return true
	}
	// Судну с ненулевой длительностью нужна ровно одна стоянка.
	last, left := -1, 0
	for o := 0; o < md.m; o++ {
		if md.use[i*md.m+o] != False {
			last = o
			left++
		}
	}
	switch left {
	case 0:
		return false
	case 1:
		return md.setUse(i, last, True)
	}
	return true
}
