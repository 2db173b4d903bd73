package jobs

// JobBuildSweep 补扫任务：重新入队长时间未完成的构建.
const JobBuildSweep = "build.sweep"
