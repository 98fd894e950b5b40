package dispatch

import (
	"fmt"
	"log"
	"time"

	"github.com/goaltrack/internal/db"
	"github.com/goaltrack/internal/service"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Notifier 抽象提醒的投递通道。
// 邮件/推送等真实传输不在本服务范围内，默认实现只落日志。
type Notifier interface {
	Notify(goal *db.Goal, reminder *db.Reminder) error
}

// LogNotifier 把提醒内容写到标准日志，作为默认投递实现。
type LogNotifier struct{}

// Notify 实现 Notifier
func (LogNotifier) Notify(goal *db.Goal, reminder *db.Reminder) error {
	log.Printf("reminder due: goal=%q reminder_id=%d type=%s message=%q",
		goal.Title, reminder.ID, reminder.Type, reminder.Message)
	return nil
}

// Dispatcher 周期性扫描到期提醒并逐条投递。
// 扫描间隔由配置决定；投递成功后立即 MarkSent 推进调度，
// 所属目标已完成/取消的提醒在这里顺带停用。
type Dispatcher struct {
	reminders *service.ReminderService
	goals     *service.GoalService
	notifier  Notifier
	cron      *cron.Cron
	interval  time.Duration
}

// NewDispatcher 构造 Dispatcher，notifier 为 nil 时使用日志投递。
func NewDispatcher(reminders *service.ReminderService, goals *service.GoalService, notifier Notifier, interval time.Duration) *Dispatcher {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Dispatcher{
		reminders: reminders,
		goals:     goals,
		notifier:  notifier,
		cron:      cron.New(),
		interval:  interval,
	}
}

// Start 注册并启动定时任务
func (d *Dispatcher) Start() error {
	spec := fmt.Sprintf("@every %s", d.interval)

	if _, err := d.cron.AddFunc(spec, func() {
		d.RunOnce(time.Now())
	}); err != nil {
		return fmt.Errorf("add dispatch job: %w", err)
	}

	d.cron.Start()
	log.Printf("reminder dispatcher started, interval=%s", d.interval)
	return nil
}

// Stop 停止定时任务并等待在途执行结束
func (d *Dispatcher) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	log.Println("reminder dispatcher stopped")
}

// RunOnce 执行一轮派发，返回成功投递的条数。
// 单条失败只记日志不中断本轮，下轮扫描会再次命中未推进的提醒。
func (d *Dispatcher) RunOnce(now time.Time) int {
	runID := uuid.NewString()

	due, err := d.reminders.DueBefore(now)
	if err != nil {
		log.Printf("dispatch %s: load due reminders: %v", runID, err)
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	sent := 0
	for i := range due {
		reminder := &due[i]

		// 目标已完结的提醒不再触发
		if d.goals.IsFinished(&reminder.Goal) {
			if err := d.reminders.Deactivate(reminder.ID); err != nil {
				log.Printf("dispatch %s: deactivate reminder %d: %v", runID, reminder.ID, err)
			}
			continue
		}

		if err := d.notifier.Notify(&reminder.Goal, reminder); err != nil {
			log.Printf("dispatch %s: notify reminder %d: %v", runID, reminder.ID, err)
			continue
		}

		if _, err := d.reminders.MarkSent(reminder.ID, now); err != nil {
			log.Printf("dispatch %s: mark reminder %d sent: %v", runID, reminder.ID, err)
			continue
		}
		sent++
	}

	log.Printf("dispatch %s: %d/%d reminders sent", runID, sent, len(due))
	return sent
}
